package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dirsh/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dirsh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAliasRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := s.AddAlias(ctx, domain.AliasDefinition{
		Name:        "build",
		Directory:   "/proj",
		Recursive:   true,
		Commands:    []string{"make clean", "make"},
		Description: "full rebuild",
		Output:      domain.OutputStderr,
	})
	require.NoError(t, err)
	assert.Positive(t, def.ID)

	defs, err := s.Aliases(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "build", defs[0].Name)
	assert.Equal(t, []string{"make clean", "make"}, defs[0].Commands)
	assert.True(t, defs[0].Recursive)
	assert.Equal(t, domain.OutputStderr, defs[0].Output)
	assert.False(t, defs[0].CreatedAt.IsZero())

	def.Recursive = false
	def.Commands = []string{"make"}
	require.NoError(t, s.UpdateAlias(ctx, def))
	defs, err = s.Aliases(ctx)
	require.NoError(t, err)
	assert.False(t, defs[0].Recursive)
	assert.Equal(t, []string{"make"}, defs[0].Commands)

	require.NoError(t, s.DeleteAlias(ctx, def.ID))
	defs, err = s.Aliases(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestIdentifiersAreMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddAlias(ctx, domain.AliasDefinition{Name: "a", Directory: "/", Commands: []string{"true"}})
	require.NoError(t, err)
	require.NoError(t, s.DeleteAlias(ctx, first.ID))

	second, err := s.AddAlias(ctx, domain.AliasDefinition{Name: "b", Directory: "/", Commands: []string{"true"}})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID, "identifiers must never be reused")
}

func TestDeleteMissingDefinition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.DeleteAlias(ctx, 42), domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteVariable(ctx, 42), domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAlias(ctx, domain.AliasDefinition{ID: 42, Commands: []string{"x"}}), domain.ErrNotFound)
}

func TestVariableRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := s.AddVariable(ctx, domain.VariableDefinition{
		Name: "STAGE", Directory: "/proj", Value: "dev",
	})
	require.NoError(t, err)

	def.Value = "prod"
	require.NoError(t, s.UpdateVariable(ctx, def))

	defs, err := s.Variables(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "prod", defs[0].Value)
}

func TestPluginLifecyclePersistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.AddPlugin(ctx, domain.PluginRecord{
		Name:       "greeter",
		Path:       "/usr/lib/dirsh/greeter",
		APIVersion: "1.1",
		Calls:      []string{"install", "precommand"},
	})
	require.NoError(t, err)
	assert.Positive(t, rec.ID)

	require.NoError(t, s.SetPluginEnabled(ctx, rec.ID, true))
	recs, err := s.Plugins(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Enabled)
	assert.Equal(t, []string{"install", "precommand"}, recs[0].Calls)

	require.NoError(t, s.AddPluginCommand(ctx, "greet", rec.ID))
	cmds, err := s.PluginCommands(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"greet": rec.ID}, cmds)

	// Removing the plugin also drops its command registrations.
	require.NoError(t, s.DeletePlugin(ctx, rec.ID))
	cmds, err = s.PluginCommands(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmds)

	assert.ErrorIs(t, s.SetPluginEnabled(ctx, rec.ID, false), domain.ErrNotFound)
}

func TestOptionStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetOption(ctx, domain.OptionDefinition{
		Name: "greeting", Value: "hello", Description: "greeter text",
	}))
	opt, err := s.GetOption(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", opt.Value)
	assert.Equal(t, "string", opt.Type)

	require.NoError(t, s.SetOption(ctx, domain.OptionDefinition{Name: "greeting", Value: "hi"}))
	opt, err = s.GetOption(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi", opt.Value)

	require.NoError(t, s.RemoveOption(ctx, "greeting"))
	_, err = s.GetOption(ctx, "greeting")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.RemoveOption(ctx, "greeting"), domain.ErrNotFound)
}

func TestHelpStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertHelp(ctx, domain.HelpTopic{
		Topic: "greet", Usage: "greet [name]", Content: "says hello",
	}))
	topic, err := s.HelpTopic(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, "greet [name]", topic.Usage)

	require.NoError(t, s.UpsertHelp(ctx, domain.HelpTopic{Topic: "greet", Usage: "greet", Content: "v2"}))
	topic, err = s.HelpTopic(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, "v2", topic.Content)

	require.NoError(t, s.DeleteHelp(ctx, "greet"))
	_, err = s.HelpTopic(ctx, "greet")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
