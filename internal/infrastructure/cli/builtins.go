package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/dirsh/internal/app"
	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/pkg/filesystem"
	"github.com/doeshing/dirsh/internal/services"
)

// builtins binds the engine's reserved commands to the container. Each
// handler runs inside the execution pipeline like any other command, so
// gating with && and || applies to built-ins too.
type builtins struct {
	container *app.Container
	renderer  *Renderer
	prompter  *Prompter
}

// RegisterBuiltins seeds the reserved command set into the registry.
func RegisterBuiltins(container *app.Container, renderer *Renderer, prompter *Prompter) error {
	b := &builtins{container: container, renderer: renderer, prompter: prompter}

	entries := []domain.CommandEntry{
		{Name: "exit", Handler: domain.HandlerFunc(b.exit)},
		{Name: "cd", Handler: domain.HandlerFunc(b.cd)},
		{Name: "set", Handler: domain.HandlerFunc(b.set)},
		{Name: "unset", Handler: domain.HandlerFunc(b.unset)},
		{Name: "exec", Handler: domain.HandlerFunc(b.exec)},
		{Name: "help", Handler: domain.HandlerFunc(b.help)},
		{Name: "alias", Handler: b.cobraHandler(func() *cobra.Command {
			return NewAliasCommand(container, renderer, prompter)
		})},
		{Name: "variable", Handler: b.cobraHandler(func() *cobra.Command {
			return NewVariableCommand(container, renderer, prompter)
		})},
		{Name: "plugin", Handler: b.cobraHandler(func() *cobra.Command {
			return NewPluginCommand(container, renderer, prompter)
		})},
	}
	return container.Registry.Seed(entries)
}

// exit stops the interactive loop. The sentinel passes through the
// pipeline untouched.
func (b *builtins) exit(ctx context.Context, args []string) error {
	return services.ErrExit
}

// cd changes the working directory and recomputes the definition scope,
// applying and restoring environment variables as directories are
// entered and left.
func (b *builtins) cd(ctx context.Context, args []string) error {
	target := filesystem.UserHomeDir()
	if len(args) > 0 {
		target = args[0]
	}
	if err := os.Chdir(target); err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return b.container.Scope.Recompute(ctx, cwd)
}

// set assigns a plain process environment variable: `set NAME=value`.
// It never touches the persisted, directory-scoped definitions; those
// are managed with `variable add`.
func (b *builtins) set(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set NAME=value")
	}
	name, value, found := strings.Cut(strings.Join(args, " "), "=")
	if !found {
		return fmt.Errorf("usage: set NAME=value")
	}
	name = strings.TrimSpace(name)
	if !domain.ValidDefinitionName(name) {
		return fmt.Errorf("invalid variable name %q: use letters, digits, and underscore", name)
	}
	return os.Setenv(name, value)
}

// unset drops a process environment variable. A scoped definition with
// the same name reappears on the next directory change.
func (b *builtins) unset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unset NAME")
	}
	return os.Unsetenv(args[0])
}

// exec runs a program directly, bypassing the system shell and alias
// resolution.
func (b *builtins) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: exec PROGRAM [ARGS...]")
	}
	req := domain.ExecRequest{
		Command: strings.Join(args, " "),
		Direct:  true,
	}
	res, err := b.container.Executor.Execute(ctx, req)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%s: exit status %d", args[0], res.ExitCode)
	}
	return nil
}

// help shows a plugin-registered topic, or without arguments lists
// everything invocable right now.
func (b *builtins) help(ctx context.Context, args []string) error {
	if len(args) > 0 {
		topic, err := b.container.Store.HelpTopic(ctx, args[0])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no help for %q", args[0])
			}
			return err
		}
		b.renderer.Heading(topic.Topic)
		if topic.Usage != "" {
			b.renderer.Printf("Usage: %s\n", topic.Usage)
		}
		if topic.Content != "" {
			b.renderer.Println(topic.Content)
		}
		return nil
	}

	b.renderer.Heading("Commands")
	for _, name := range b.container.Registry.Names() {
		b.renderer.Printf("  %s\n", name)
	}
	aliases := b.container.Scope.AliasNames()
	if len(aliases) > 0 {
		sort.Strings(aliases)
		b.renderer.Heading("Aliases in scope")
		for _, name := range aliases {
			b.renderer.Printf("  %s\n", name)
		}
	}
	return nil
}

// cobraHandler adapts a cobra command tree into a dispatchable handler.
// A fresh command is built per invocation so flag state never leaks
// between calls.
func (b *builtins) cobraHandler(build func() *cobra.Command) domain.Handler {
	return domain.HandlerFunc(func(ctx context.Context, args []string) error {
		cmd := build()
		cmd.SetArgs(args)
		cmd.SilenceErrors = true
		return cmd.ExecuteContext(ctx)
	})
}
