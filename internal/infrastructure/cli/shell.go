package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/doeshing/dirsh/internal/app"
	"github.com/doeshing/dirsh/internal/services"
)

// RunShell drives the interactive loop: read a line, hand it to the
// execution pipeline, render the error if any, repeat until the exit
// built-in fires or input ends.
func RunShell(ctx context.Context, container *app.Container, renderer *Renderer) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return runPipedShell(ctx, container, renderer)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt(),
		HistoryFile:     container.Config.HistoryFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(container),
	})
	if err != nil {
		container.Logger.Debug("readline unavailable, falling back to plain input", map[string]interface{}{"error": err.Error()})
		return runPipedShell(ctx, container, renderer)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if done := dispatchLine(ctx, container, renderer, line); done {
			return nil
		}
		// cd may have moved us; keep the prompt honest.
		rl.SetPrompt(shellPrompt())
	}
}

// runPipedShell consumes stdin line by line for non-terminal input,
// such as scripts piped into the shell.
func runPipedShell(ctx context.Context, container *app.Container, renderer *Renderer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if done := dispatchLine(ctx, container, renderer, scanner.Text()); done {
			return nil
		}
	}
	return scanner.Err()
}

// dispatchLine runs one input line and reports whether the loop should
// stop. Command failures are rendered, not propagated; only the exit
// built-in ends the session.
func dispatchLine(ctx context.Context, container *app.Container, renderer *Renderer, line string) bool {
	err := container.Pipeline.Run(ctx, line)
	if errors.Is(err, services.ErrExit) {
		return true
	}
	if err != nil {
		renderer.ShowError(err.Error())
	}
	return false
}

// shellPrompt renders the current directory's base name, the way most
// shells abbreviate the cwd.
func shellPrompt() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "dirsh> "
	}
	return fmt.Sprintf("%s> ", filepath.Base(cwd))
}

// newCompleter offers registered command names and in-scope alias names
// for tab completion. The dynamic callback re-reads both on every
// keystroke so plugin registrations and cd-induced scope changes show
// up immediately.
func newCompleter(container *app.Container) readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItemDynamic(func(string) []string {
			names := container.Registry.Names()
			return append(names, container.Scope.AliasNames()...)
		}),
	)
}
