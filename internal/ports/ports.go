// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces keep the scope resolution, command
// registry, and execution pipeline independent of SQLite, subprocess, and
// terminal details.
package ports

import (
	"context"

	"github.com/doeshing/dirsh/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.dirsh/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// DefinitionStore persists alias and variable definitions. Identifiers
// are assigned by the store, monotonically, and are never reused.
type DefinitionStore interface {
	Aliases(ctx context.Context) ([]domain.AliasDefinition, error)
	AddAlias(ctx context.Context, def domain.AliasDefinition) (domain.AliasDefinition, error)
	UpdateAlias(ctx context.Context, def domain.AliasDefinition) error
	DeleteAlias(ctx context.Context, id int64) error

	Variables(ctx context.Context) ([]domain.VariableDefinition, error)
	AddVariable(ctx context.Context, def domain.VariableDefinition) (domain.VariableDefinition, error)
	UpdateVariable(ctx context.Context, def domain.VariableDefinition) error
	DeleteVariable(ctx context.Context, id int64) error
}

// PluginStore persists plugin records and the commands plugins have
// registered, so registrations survive shell restarts.
type PluginStore interface {
	Plugins(ctx context.Context) ([]domain.PluginRecord, error)
	AddPlugin(ctx context.Context, rec domain.PluginRecord) (domain.PluginRecord, error)
	SetPluginEnabled(ctx context.Context, id int64, enabled bool) error
	DeletePlugin(ctx context.Context, id int64) error

	PluginCommands(ctx context.Context) (map[string]int64, error)
	AddPluginCommand(ctx context.Context, name string, pluginID int64) error
	DeletePluginCommand(ctx context.Context, name string) error
}

// OptionStore persists the key/value options plugins manage through the
// setOption/getOption/removeOption protocol verbs.
type OptionStore interface {
	SetOption(ctx context.Context, opt domain.OptionDefinition) error
	GetOption(ctx context.Context, name string) (domain.OptionDefinition, error)
	RemoveOption(ctx context.Context, name string) error
}

// HelpStore persists plugin-managed help topics.
type HelpStore interface {
	UpsertHelp(ctx context.Context, topic domain.HelpTopic) error
	DeleteHelp(ctx context.Context, topic string) error
}

// CommandExecutor runs external commands through the configured system
// shell or directly, applying the request's output redirection mode.
type CommandExecutor interface {
	Execute(ctx context.Context, req domain.ExecRequest) (domain.ExecResult, error)
}

// PluginRunner executes a single plugin call and interprets the
// line-oriented protocol the plugin writes on its standard output. The
// returned string is the accumulated answer text, if the plugin emitted
// any answer lines.
type PluginRunner interface {
	Call(ctx context.Context, rec domain.PluginRecord, call string, args ...string) (string, error)
}

// Logger provides structured logging for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
