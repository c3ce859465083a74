package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/doeshing/dirsh/internal/app"
	"github.com/doeshing/dirsh/internal/services"
	"github.com/doeshing/dirsh/internal/version"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. Invoked bare, dirsh starts
// the interactive shell; the subcommands expose alias, variable, and
// plugin management to scripts without entering the loop.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, *app.Container, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	renderer := NewRenderer(container.Config.Color && isatty.IsTerminal(os.Stdout.Fd()))
	prompter := NewPrompter(nil, nil)
	container.Host.SetPrinter(renderer)

	if err := RegisterBuiltins(container, renderer, prompter); err != nil {
		return nil, nil, err
	}

	root := &cobra.Command{
		Use:   "dirsh",
		Short: "dirsh - directory-scoped command shell",
		Long:  "dirsh is an interactive shell with aliases and environment variables scoped to directories, extended at runtime by plugins.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunShell(cmd.Context(), container, renderer)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand(container))
	root.AddCommand(NewAliasCommand(container, renderer, prompter))
	root.AddCommand(NewVariableCommand(container, renderer, prompter))
	root.AddCommand(NewPluginCommand(container, renderer, prompter))
	root.AddCommand(newVersionCommand())
	return root, container, nil
}

// newRunCommand executes a single line through the pipeline and exits,
// so scripts can use alias resolution and gating without a session.
func newRunCommand(container *app.Container) *cobra.Command {
	var line string

	cmd := &cobra.Command{
		Use:   "run [-c line] [line...]",
		Short: "Run one command line and exit",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if line == "" {
				line = strings.Join(args, " ")
			}
			if strings.TrimSpace(line) == "" {
				return fmt.Errorf("nothing to run")
			}
			err := container.Pipeline.Run(cmd.Context(), line)
			if errors.Is(err, services.ErrExit) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&line, "command", "c", "", "Command line to run")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show dirsh version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dirsh version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Fprintf(out, "Commit: %s\n", version.Commit)
			}
			if version.BuildDate != "" {
				fmt.Fprintf(out, "Built: %s\n", version.BuildDate)
			}
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			return nil
		},
	}
}
