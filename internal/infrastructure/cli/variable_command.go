package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/dirsh/internal/app"
	"github.com/doeshing/dirsh/internal/domain"
)

// NewVariableCommand creates the variable command with all subcommands.
func NewVariableCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	variableCmd := &cobra.Command{
		Use:   "variable",
		Short: "Manage directory-scoped environment variables",
	}

	variableCmd.AddCommand(
		newVariableListCommand(container, renderer),
		newVariableShowCommand(container, renderer),
		newVariableAddCommand(container, renderer),
		newVariableEditCommand(container, renderer),
		newVariableDeleteCommand(container, renderer, prompter),
	)

	return variableCmd
}

func newVariableListCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := container.Store.Variables(cmd.Context())
			if err != nil {
				return err
			}
			if len(variables) == 0 {
				renderer.Println("No variables defined.")
				return nil
			}
			renderer.Heading("Variables")
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tVALUE\tDIRECTORY\tRECURSIVE\tCREATED")
			for _, v := range variables {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\t%s\n",
					v.ID, v.Name, v.Value, v.Directory, v.Recursive, humanize.Time(v.CreatedAt))
			}
			return w.Flush()
		},
	}
}

func newVariableShowCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one variable in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			variable, err := findVariable(cmd, container, id)
			if err != nil {
				return err
			}
			renderer.Heading(variable.Name)
			renderer.Printf("ID:          %d\n", variable.ID)
			renderer.Printf("Value:       %s\n", variable.Value)
			renderer.Printf("Directory:   %s\n", variable.Directory)
			renderer.Printf("Recursive:   %v\n", variable.Recursive)
			if variable.Description != "" {
				renderer.Printf("Description: %s\n", variable.Description)
			}
			renderer.Printf("Created:     %s\n", humanize.Time(variable.CreatedAt))
			return nil
		},
	}
}

func newVariableAddCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	var (
		name        string
		dir         string
		recursive   bool
		value       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a variable scoped to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			def := domain.VariableDefinition{
				Name:        name,
				Directory:   dir,
				Recursive:   recursive,
				Value:       value,
				Description: description,
			}
			if err := normalizeVariable(&def); err != nil {
				return err
			}
			added, err := container.Store.AddVariable(cmd.Context(), def)
			if err != nil {
				return err
			}
			if err := recomputeScope(cmd, container); err != nil {
				return err
			}
			renderer.Printf("Added variable %s (id %d) for %s\n", added.Name, added.ID, added.Directory)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Variable name (letters, digits, underscore)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory the variable is scoped to (default: current)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Apply in subdirectories too")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Variable value")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newVariableEditCommand(container *app.Container, renderer *Renderer) *cobra.Command {
	var (
		name        string
		dir         string
		recursive   bool
		value       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			variable, err := findVariable(cmd, container, id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				variable.Name = name
			}
			if cmd.Flags().Changed("dir") {
				variable.Directory = dir
			}
			if cmd.Flags().Changed("recursive") {
				variable.Recursive = recursive
			}
			if cmd.Flags().Changed("value") {
				variable.Value = value
			}
			if cmd.Flags().Changed("description") {
				variable.Description = description
			}
			if err := normalizeVariable(&variable); err != nil {
				return err
			}
			if err := container.Store.UpdateVariable(cmd.Context(), variable); err != nil {
				return err
			}
			if err := recomputeScope(cmd, container); err != nil {
				return err
			}
			renderer.Printf("Updated variable %d\n", variable.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Variable name")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory the variable is scoped to")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Apply in subdirectories too")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Variable value")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")

	return cmd
}

func newVariableDeleteCommand(container *app.Container, renderer *Renderer, prompter *Prompter) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			variable, err := findVariable(cmd, container, id)
			if err != nil {
				return err
			}
			if !force {
				ok, err := prompter.Confirm(fmt.Sprintf("Delete variable %q (id %d)?", variable.Name, variable.ID))
				if err != nil {
					return err
				}
				if !ok {
					renderer.Println("Aborted.")
					return nil
				}
			}
			if err := container.Scope.DeleteVariable(cmd.Context(), id); err != nil {
				return err
			}
			renderer.Printf("Deleted variable %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

func normalizeVariable(def *domain.VariableDefinition) error {
	if !domain.ValidDefinitionName(def.Name) {
		return fmt.Errorf("invalid variable name %q: use letters, digits, and underscore", def.Name)
	}
	return resolveScopeDir(&def.Directory)
}

func findVariable(cmd *cobra.Command, container *app.Container, id int64) (domain.VariableDefinition, error) {
	variables, err := container.Store.Variables(cmd.Context())
	if err != nil {
		return domain.VariableDefinition{}, err
	}
	for _, v := range variables {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.VariableDefinition{}, fmt.Errorf("variable %d: %w", id, domain.ErrNotFound)
}
