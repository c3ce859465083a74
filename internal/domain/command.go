package domain

import "context"

// CommandOrigin distinguishes engine-seeded commands from plugin
// registrations.
type CommandOrigin string

const (
	OriginBuiltin CommandOrigin = "builtin"
	OriginPlugin  CommandOrigin = "plugin"
)

// Handler is the single dispatch capability shared by built-in functions
// and plugin trampolines. A nil error is a success exit status.
type Handler interface {
	Execute(ctx context.Context, args []string) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, args []string) error

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// CommandEntry binds a command name to its handler in the registry.
// Reserved entries are the built-ins the engine ships; their names can
// never be removed or shadowed, and plugins may not rebind them.
type CommandEntry struct {
	Name     string
	Origin   CommandOrigin
	Reserved bool
	// PluginID identifies the owning plugin for plugin-origin entries,
	// so removal of a plugin can cascade-unregister its commands.
	PluginID int64
	Handler  Handler
}
