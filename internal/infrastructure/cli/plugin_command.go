package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/dirsh/internal/app"
)

// NewPluginCommand creates the plugin command with all subcommands.
func NewPluginCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	pluginCmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugins",
	}

	pluginCmd.AddCommand(
		newPluginListCommand(container, renderer),
		newPluginShowCommand(container, renderer),
		newPluginAddCommand(container, renderer),
		newPluginEnableCommand(container, renderer),
		newPluginDisableCommand(container, renderer),
		newPluginRemoveCommand(container, renderer, prompter),
	)

	return pluginCmd
}

func newPluginListCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			plugins := container.Host.Plugins()
			if len(plugins) == 0 {
				renderer.Println("No plugins installed.")
				return nil
			}
			renderer.Heading("Plugins")
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED\tAPI\tINSTALLED")
			for _, p := range plugins {
				fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\n",
					p.ID, p.Name, p.Enabled, p.APIVersion, humanize.Time(p.CreatedAt))
			}
			return w.Flush()
		},
	}
}

func newPluginShowCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show plugin details, querying the plugin for its info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := container.Host.Find(id)
			if err != nil {
				return err
			}
			renderer.Heading(rec.Name)
			renderer.Printf("ID:          %d\n", rec.ID)
			renderer.Printf("Path:        %s\n", rec.Path)
			renderer.Printf("Enabled:     %v\n", rec.Enabled)
			renderer.Printf("API version: %s\n", rec.APIVersion)
			if rec.Description != "" {
				renderer.Printf("Description: %s\n", rec.Description)
			}
			if len(rec.Calls) > 0 {
				renderer.Printf("Calls:       %v\n", rec.Calls)
			}
			renderer.Printf("Installed:   %s\n", humanize.Time(rec.CreatedAt))
			if info, err := container.Host.Info(cmd.Context(), id); err == nil && info != "" {
				renderer.Printf("Info:        %s\n", info)
			}
			return nil
		},
	}
}

func newPluginAddCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Install a plugin executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			rec, err := container.Host.Add(cmd.Context(), path)
			if err != nil {
				return err
			}
			renderer.Printf("Installed plugin %s (id %d), api %s\n", rec.Name, rec.ID, rec.APIVersion)
			return nil
		},
	}
}

func newPluginEnableCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := container.Host.Enable(cmd.Context(), id); err != nil {
				return err
			}
			renderer.Printf("Enabled plugin %d\n", id)
			return nil
		},
	}
}

func newPluginDisableCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a plugin without uninstalling it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := container.Host.Disable(cmd.Context(), id); err != nil {
				return err
			}
			renderer.Printf("Disabled plugin %d\n", id)
			return nil
		},
	}
}

func newPluginRemoveCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Uninstall a plugin and its registered commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := container.Host.Find(id)
			if err != nil {
				return err
			}
			if !force {
				ok, err := prompter.Confirm(fmt.Sprintf("Remove plugin %q (id %d)?", rec.Name, rec.ID))
				if err != nil {
					return err
				}
				if !ok {
					renderer.Println("Aborted.")
					return nil
				}
			}
			if err := container.Host.Remove(cmd.Context(), id); err != nil {
				return err
			}
			renderer.Printf("Removed plugin %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}
