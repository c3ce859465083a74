// Package services implements the application core: the command
// registry, the directory-scoped definition resolver, and the execution
// pipeline that turns input lines into executed effects.
package services

import (
	"fmt"
	"sort"

	"github.com/doeshing/dirsh/internal/domain"
)

// Registry is the flat name -> handler dispatch table shared by
// built-ins and plugin-registered commands. It is mutated only by the
// single execution thread between blocking calls, so it carries no lock.
type Registry struct {
	entries map[string]domain.CommandEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]domain.CommandEntry)}
}

// Seed installs the engine's built-in commands at startup. Seeding a
// duplicate name is a programming error.
func (r *Registry) Seed(entries []domain.CommandEntry) error {
	for _, e := range entries {
		e.Origin = domain.OriginBuiltin
		e.Reserved = true
		if err := r.Register(e); err != nil {
			return fmt.Errorf("seed %s: %w", e.Name, err)
		}
	}
	return nil
}

// Register adds a new entry. Any present name, reserved or not, makes
// the add fail.
func (r *Registry) Register(entry domain.CommandEntry) error {
	if _, ok := r.entries[entry.Name]; ok {
		return fmt.Errorf("command %s: %w", entry.Name, domain.ErrAlreadyExists)
	}
	r.entries[entry.Name] = entry
	return nil
}

// Replace rebinds the handler of an existing entry. Plugins may rebind
// only plugin-origin entries; every built-in the engine seeds is
// reserved and keeps its handler.
func (r *Registry) Replace(entry domain.CommandEntry) error {
	existing, ok := r.entries[entry.Name]
	if !ok {
		return fmt.Errorf("command %s: %w", entry.Name, domain.ErrNotFound)
	}
	if existing.Reserved && entry.Origin == domain.OriginPlugin {
		return fmt.Errorf("command %s is reserved: %w", entry.Name, domain.ErrForbidden)
	}
	entry.Reserved = existing.Reserved
	r.entries[entry.Name] = entry
	return nil
}

// Unregister removes an entry. Built-in names can never be removed.
func (r *Registry) Unregister(name string) error {
	existing, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("command %s: %w", name, domain.ErrNotFound)
	}
	if existing.Origin == domain.OriginBuiltin {
		return fmt.Errorf("command %s is built in: %w", name, domain.ErrForbidden)
	}
	delete(r.entries, name)
	return nil
}

// Resolve looks up a handler by name.
func (r *Registry) Resolve(name string) (domain.CommandEntry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}

// RemoveOwnedBy cascade-unregisters every entry a plugin owns and
// returns the removed names. Called when a plugin is removed.
func (r *Registry) RemoveOwnedBy(pluginID int64) []string {
	var removed []string
	for name, entry := range r.entries {
		if entry.Origin == domain.OriginPlugin && entry.PluginID == pluginID {
			delete(r.entries, name)
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}

// Names returns all registered command names, sorted. The line editor
// feeds these into completion.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
