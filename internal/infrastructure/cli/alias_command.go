package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/dirsh/internal/app"
	"github.com/doeshing/dirsh/internal/domain"
)

// NewAliasCommand creates the alias command with all subcommands.
func NewAliasCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage directory-scoped aliases",
	}

	aliasCmd.AddCommand(
		newAliasListCommand(container, renderer),
		newAliasShowCommand(container, renderer),
		newAliasAddCommand(container, renderer),
		newAliasEditCommand(container, renderer),
		newAliasDeleteCommand(container, renderer, prompter),
	)

	return aliasCmd
}

func newAliasListCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases, err := container.Store.Aliases(cmd.Context())
			if err != nil {
				return err
			}
			if len(aliases) == 0 {
				renderer.Println("No aliases defined.")
				return nil
			}
			renderer.Heading("Aliases")
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDIRECTORY\tRECURSIVE\tCREATED")
			for _, a := range aliases {
				fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\n",
					a.ID, a.Name, a.Directory, a.Recursive, humanize.Time(a.CreatedAt))
			}
			return w.Flush()
		},
	}
}

func newAliasShowCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one alias in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			alias, err := findAlias(cmd, container, id)
			if err != nil {
				return err
			}
			renderer.Heading(alias.Name)
			renderer.Printf("ID:          %d\n", alias.ID)
			renderer.Printf("Directory:   %s\n", alias.Directory)
			renderer.Printf("Recursive:   %v\n", alias.Recursive)
			renderer.Printf("Output:      %s\n", alias.Output)
			if alias.Description != "" {
				renderer.Printf("Description: %s\n", alias.Description)
			}
			renderer.Printf("Created:     %s\n", humanize.Time(alias.CreatedAt))
			renderer.Println("Commands:")
			for _, c := range alias.Commands {
				renderer.Printf("  %s\n", c)
			}
			return nil
		},
	}
}

func newAliasAddCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	var (
		name        string
		dir         string
		recursive   bool
		commands    []string
		description string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an alias scoped to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			def := domain.AliasDefinition{
				Name:        name,
				Directory:   dir,
				Recursive:   recursive,
				Commands:    commands,
				Description: description,
				Output:      output,
			}
			if err := normalizeAlias(&def); err != nil {
				return err
			}
			added, err := container.Store.AddAlias(cmd.Context(), def)
			if err != nil {
				return err
			}
			if err := recomputeScope(cmd, container); err != nil {
				return err
			}
			renderer.Printf("Added alias %s (id %d) for %s\n", added.Name, added.ID, added.Directory)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Alias name (letters, digits, underscore)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory the alias is scoped to (default: current)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Apply in subdirectories too")
	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "Command line to run (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVarP(&output, "output", "o", domain.OutputInherit, "Where stdout goes: stdout, stderr, or a file path to append to")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func newAliasEditCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	var (
		name        string
		dir         string
		recursive   bool
		commands    []string
		description string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			alias, err := findAlias(cmd, container, id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				alias.Name = name
			}
			if cmd.Flags().Changed("dir") {
				alias.Directory = dir
			}
			if cmd.Flags().Changed("recursive") {
				alias.Recursive = recursive
			}
			if cmd.Flags().Changed("command") {
				alias.Commands = commands
			}
			if cmd.Flags().Changed("description") {
				alias.Description = description
			}
			if cmd.Flags().Changed("output") {
				alias.Output = output
			}
			if err := normalizeAlias(&alias); err != nil {
				return err
			}
			if err := container.Store.UpdateAlias(cmd.Context(), alias); err != nil {
				return err
			}
			if err := recomputeScope(cmd, container); err != nil {
				return err
			}
			renderer.Printf("Updated alias %d\n", alias.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Alias name")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory the alias is scoped to")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Apply in subdirectories too")
	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "Command line to run (repeatable, replaces all)")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Where stdout goes: stdout, stderr, or a file path")

	return cmd
}

func newAliasDeleteCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			alias, err := findAlias(cmd, container, id)
			if err != nil {
				return err
			}
			if !force {
				ok, err := prompter.Confirm(fmt.Sprintf("Delete alias %q (id %d)?", alias.Name, alias.ID))
				if err != nil {
					return err
				}
				if !ok {
					renderer.Println("Aborted.")
					return nil
				}
			}
			if err := container.Scope.DeleteAlias(cmd.Context(), id); err != nil {
				return err
			}
			renderer.Printf("Deleted alias %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

// normalizeAlias validates and fills defaults shared by add and edit.
func normalizeAlias(def *domain.AliasDefinition) error {
	if !domain.ValidDefinitionName(def.Name) {
		return fmt.Errorf("invalid alias name %q: use letters, digits, and underscore", def.Name)
	}
	if len(def.Commands) == 0 {
		return fmt.Errorf("alias needs at least one --command")
	}
	for _, c := range def.Commands {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("alias command lines must not be empty")
		}
	}
	if def.Output == "" {
		def.Output = domain.OutputInherit
	}
	return resolveScopeDir(&def.Directory)
}

// resolveScopeDir defaults to the working directory and requires the
// target to exist so typos do not create unreachable definitions.
func resolveScopeDir(dir *string) error {
	if *dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		*dir = cwd
	}
	abs, err := filepath.Abs(*dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}
	*dir = filepath.Clean(abs)
	return nil
}

func findAlias(cmd *cobra.Command, container *app.Container, id int64) (domain.AliasDefinition, error) {
	aliases, err := container.Store.Aliases(cmd.Context())
	if err != nil {
		return domain.AliasDefinition{}, err
	}
	for _, a := range aliases {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.AliasDefinition{}, fmt.Errorf("alias %d: %w", id, domain.ErrNotFound)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// recomputeScope refreshes the in-scope definition maps after a store
// mutation so the running shell sees the change immediately.
func recomputeScope(cmd *cobra.Command, container *app.Container) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return container.Scope.Recompute(cmd.Context(), cwd)
}
