package services

import (
	"context"
	"fmt"
	"os"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/ports"
)

// savedEnv remembers what a process environment variable held before a
// scoped definition shadowed it, so leaving the directory restores it.
type savedEnv struct {
	value   string
	present bool
}

// Scope resolves which persisted alias and variable definitions are
// visible from the current working directory. Rebuilt by Recompute on
// every directory change and on every definition mutation; lookups
// between rebuilds are map hits.
type Scope struct {
	store  ports.DefinitionStore
	logger ports.Logger

	dir       string
	aliases   map[string]domain.AliasDefinition
	variables map[string]domain.VariableDefinition
	applied   map[string]savedEnv
}

// NewScope creates an empty scope. Call Recompute before first use.
func NewScope(store ports.DefinitionStore, logger ports.Logger) *Scope {
	return &Scope{
		store:     store,
		logger:    logger,
		aliases:   make(map[string]domain.AliasDefinition),
		variables: make(map[string]domain.VariableDefinition),
		applied:   make(map[string]savedEnv),
	}
}

// Dir returns the directory the scope was last computed for.
func (s *Scope) Dir() string {
	return s.dir
}

// Recompute rebuilds the in-scope maps from the persisted definitions
// and applies every winning variable's value to the process
// environment. Collision rules differ on purpose: the oldest in-scope
// alias wins, the newest in-scope variable wins.
func (s *Scope) Recompute(ctx context.Context, dir string) error {
	aliases, err := s.store.Aliases(ctx)
	if err != nil {
		return fmt.Errorf("recompute aliases: %w", err)
	}
	variables, err := s.store.Variables(ctx)
	if err != nil {
		return fmt.Errorf("recompute variables: %w", err)
	}

	s.dir = dir
	s.aliases = make(map[string]domain.AliasDefinition, len(aliases))
	for _, def := range aliases {
		if !def.InScope(dir) {
			continue
		}
		if winner, ok := s.aliases[def.Name]; ok && winner.ID <= def.ID {
			continue
		}
		s.aliases[def.Name] = def
	}

	s.variables = make(map[string]domain.VariableDefinition, len(variables))
	for _, def := range variables {
		if !def.InScope(dir) {
			continue
		}
		if winner, ok := s.variables[def.Name]; ok && winner.ID >= def.ID {
			continue
		}
		s.variables[def.Name] = def
	}

	s.applyEnvironment()
	return nil
}

// applyEnvironment exports each winning variable and restores entries
// whose definitions fell out of scope.
func (s *Scope) applyEnvironment() {
	for name, saved := range s.applied {
		if _, still := s.variables[name]; still {
			continue
		}
		if saved.present {
			_ = os.Setenv(name, saved.value)
		} else {
			_ = os.Unsetenv(name)
		}
		delete(s.applied, name)
	}
	for name, def := range s.variables {
		if _, tracked := s.applied[name]; !tracked {
			prev, present := os.LookupEnv(name)
			s.applied[name] = savedEnv{value: prev, present: present}
		}
		if err := os.Setenv(name, def.Value); err != nil {
			s.logger.Warn("setenv failed", map[string]interface{}{"name": name, "error": err.Error()})
		}
	}
}

// LookupAlias returns the winning in-scope alias for name.
func (s *Scope) LookupAlias(name string) (domain.AliasDefinition, error) {
	def, ok := s.aliases[name]
	if !ok {
		return domain.AliasDefinition{}, fmt.Errorf("alias %s: %w", name, domain.ErrNotFound)
	}
	return def, nil
}

// LookupVariable returns the winning in-scope variable for name.
func (s *Scope) LookupVariable(name string) (domain.VariableDefinition, error) {
	def, ok := s.variables[name]
	if !ok {
		return domain.VariableDefinition{}, fmt.Errorf("variable %s: %w", name, domain.ErrNotFound)
	}
	return def, nil
}

// AliasNames returns the in-scope alias names for completion.
func (s *Scope) AliasNames() []string {
	names := make([]string, 0, len(s.aliases))
	for name := range s.aliases {
		names = append(names, name)
	}
	return names
}

// DeleteAlias removes a definition by identifier and recomputes.
func (s *Scope) DeleteAlias(ctx context.Context, id int64) error {
	if err := s.store.DeleteAlias(ctx, id); err != nil {
		return err
	}
	return s.Recompute(ctx, s.dir)
}

// DeleteVariable removes a definition by identifier and recomputes.
func (s *Scope) DeleteVariable(ctx context.Context, id int64) error {
	if err := s.store.DeleteVariable(ctx, id); err != nil {
		return err
	}
	return s.Recompute(ctx, s.dir)
}
