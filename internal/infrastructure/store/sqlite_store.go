// Package store persists shell state in a SQLite database: alias and
// variable definitions, plugin records, plugin-registered commands,
// plugin options, and help topics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/pkg/filesystem"
	"github.com/doeshing/dirsh/internal/ports"
)

// SQLiteStore persists definitions in a SQLite database. Identifiers
// come from AUTOINCREMENT columns, so they are monotonic and never
// reused, which the scope tie-break rules depend on.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns the ~/.dirsh/dirsh.db database location.
func DefaultPath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".dirsh", "dirsh.db")
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		recursive INTEGER NOT NULL DEFAULT 0,
		commands TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL DEFAULT 'stdout',
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS variables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		recursive INTEGER NOT NULL DEFAULT 0,
		value TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS plugins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 0,
		api_version TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		calls TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS plugin_commands (
		name TEXT PRIMARY KEY,
		plugin_id INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS options (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'string'
	);
	CREATE TABLE IF NOT EXISTS help (
		topic TEXT PRIMARY KEY,
		usage TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT ''
	);`)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ---- aliases ----

// Aliases returns all persisted alias definitions ordered by identifier.
func (s *SQLiteStore) Aliases(ctx context.Context) ([]domain.AliasDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, recursive, commands, description, output, created_at
		 FROM aliases ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []domain.AliasDefinition
	for rows.Next() {
		var def domain.AliasDefinition
		var recursive int
		var commands, created string
		if err := rows.Scan(&def.ID, &def.Name, &def.Directory, &recursive,
			&commands, &def.Description, &def.Output, &created); err != nil {
			return nil, err
		}
		def.Recursive = recursive == 1
		def.Commands = splitCommands(commands)
		def.CreatedAt = parseTime(created)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// AddAlias inserts a definition and returns it with its assigned id.
func (s *SQLiteStore) AddAlias(ctx context.Context, def domain.AliasDefinition) (domain.AliasDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def.Output == "" {
		def.Output = domain.OutputInherit
	}
	def.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO aliases (name, path, recursive, commands, description, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		def.Name, def.Directory, boolToInt(def.Recursive),
		strings.Join(def.Commands, "\n"), def.Description, def.Output,
		def.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return domain.AliasDefinition{}, err
	}
	def.ID, err = res.LastInsertId()
	return def, err
}

// UpdateAlias replaces every field of the identified definition.
func (s *SQLiteStore) UpdateAlias(ctx context.Context, def domain.AliasDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE aliases SET name = ?, path = ?, recursive = ?, commands = ?, description = ?, output = ?
		 WHERE id = ?`,
		def.Name, def.Directory, boolToInt(def.Recursive),
		strings.Join(def.Commands, "\n"), def.Description, def.Output, def.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "alias", def.ID)
}

// DeleteAlias removes a definition by identifier.
func (s *SQLiteStore) DeleteAlias(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM aliases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "alias", id)
}

// ---- variables ----

// Variables returns all persisted variable definitions ordered by identifier.
func (s *SQLiteStore) Variables(ctx context.Context) ([]domain.VariableDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, recursive, value, description, created_at
		 FROM variables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []domain.VariableDefinition
	for rows.Next() {
		var def domain.VariableDefinition
		var recursive int
		var created string
		if err := rows.Scan(&def.ID, &def.Name, &def.Directory, &recursive,
			&def.Value, &def.Description, &created); err != nil {
			return nil, err
		}
		def.Recursive = recursive == 1
		def.CreatedAt = parseTime(created)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// AddVariable inserts a definition and returns it with its assigned id.
func (s *SQLiteStore) AddVariable(ctx context.Context, def domain.VariableDefinition) (domain.VariableDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO variables (name, path, recursive, value, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.Name, def.Directory, boolToInt(def.Recursive),
		def.Value, def.Description, def.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return domain.VariableDefinition{}, err
	}
	def.ID, err = res.LastInsertId()
	return def, err
}

// UpdateVariable replaces every field of the identified definition.
func (s *SQLiteStore) UpdateVariable(ctx context.Context, def domain.VariableDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE variables SET name = ?, path = ?, recursive = ?, value = ?, description = ?
		 WHERE id = ?`,
		def.Name, def.Directory, boolToInt(def.Recursive), def.Value, def.Description, def.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "variable", def.ID)
}

// DeleteVariable removes a definition by identifier.
func (s *SQLiteStore) DeleteVariable(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "variable", id)
}

// ---- plugins ----

// Plugins returns all plugin records ordered by identifier.
func (s *SQLiteStore) Plugins(ctx context.Context) ([]domain.PluginRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, enabled, api_version, description, calls, created_at
		 FROM plugins ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.PluginRecord
	for rows.Next() {
		var rec domain.PluginRecord
		var enabled int
		var calls, created string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Path, &enabled,
			&rec.APIVersion, &rec.Description, &calls, &created); err != nil {
			return nil, err
		}
		rec.Enabled = enabled == 1
		rec.Calls = splitCalls(calls)
		rec.CreatedAt = parseTime(created)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// AddPlugin inserts a record and returns it with its assigned id.
func (s *SQLiteStore) AddPlugin(ctx context.Context, rec domain.PluginRecord) (domain.PluginRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO plugins (name, path, enabled, api_version, description, calls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Path, boolToInt(rec.Enabled), rec.APIVersion,
		rec.Description, strings.Join(rec.Calls, ","), rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return domain.PluginRecord{}, err
	}
	rec.ID, err = res.LastInsertId()
	return rec, err
}

// SetPluginEnabled toggles the enabled flag.
func (s *SQLiteStore) SetPluginEnabled(ctx context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE plugins SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return err
	}
	return requireRow(res, "plugin", id)
}

// DeletePlugin removes a record and its registered commands.
func (s *SQLiteStore) DeletePlugin(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM plugins WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res, "plugin", id); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM plugin_commands WHERE plugin_id = ?`, id)
	return err
}

// PluginCommands returns the persisted command name -> owning plugin map.
func (s *SQLiteStore) PluginCommands(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, plugin_id FROM plugin_commands`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var pluginID int64
		if err := rows.Scan(&name, &pluginID); err != nil {
			return nil, err
		}
		out[name] = pluginID
	}
	return out, rows.Err()
}

// AddPluginCommand records a plugin command registration.
func (s *SQLiteStore) AddPluginCommand(ctx context.Context, name string, pluginID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO plugin_commands (name, plugin_id, created_at) VALUES (?, ?, ?)`,
		name, pluginID, time.Now().Format(time.RFC3339))
	return err
}

// DeletePluginCommand removes a plugin command registration.
func (s *SQLiteStore) DeletePluginCommand(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM plugin_commands WHERE name = ?`, name)
	return err
}

// ---- options ----

// SetOption creates or updates an option entry.
func (s *SQLiteStore) SetOption(ctx context.Context, opt domain.OptionDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opt.Type == "" {
		opt.Type = "string"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO options (name, value, description, type) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value,
		 description = excluded.description, type = excluded.type`,
		opt.Name, opt.Value, opt.Description, opt.Type)
	return err
}

// GetOption fetches an option by name.
func (s *SQLiteStore) GetOption(ctx context.Context, name string) (domain.OptionDefinition, error) {
	var opt domain.OptionDefinition
	err := s.db.QueryRowContext(ctx,
		`SELECT name, value, description, type FROM options WHERE name = ?`, name).
		Scan(&opt.Name, &opt.Value, &opt.Description, &opt.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OptionDefinition{}, fmt.Errorf("option %s: %w", name, domain.ErrNotFound)
	}
	return opt, err
}

// RemoveOption deletes an option by name.
func (s *SQLiteStore) RemoveOption(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM options WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("option %s: %w", name, domain.ErrNotFound)
	}
	return nil
}

// ---- help ----

// UpsertHelp creates or updates a help topic.
func (s *SQLiteStore) UpsertHelp(ctx context.Context, topic domain.HelpTopic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO help (topic, usage, content) VALUES (?, ?, ?)
		 ON CONFLICT(topic) DO UPDATE SET usage = excluded.usage, content = excluded.content`,
		topic.Topic, topic.Usage, topic.Content)
	return err
}

// DeleteHelp removes a help topic.
func (s *SQLiteStore) DeleteHelp(ctx context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM help WHERE topic = ?`, topic)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("help %s: %w", topic, domain.ErrNotFound)
	}
	return nil
}

// HelpTopic fetches a single topic for the help built-in.
func (s *SQLiteStore) HelpTopic(ctx context.Context, topic string) (domain.HelpTopic, error) {
	var t domain.HelpTopic
	err := s.db.QueryRowContext(ctx,
		`SELECT topic, usage, content FROM help WHERE topic = ?`, topic).
		Scan(&t.Topic, &t.Usage, &t.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HelpTopic{}, fmt.Errorf("help %s: %w", topic, domain.ErrNotFound)
	}
	return t, err
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func splitCommands(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}

func splitCalls(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var (
	_ ports.DefinitionStore = (*SQLiteStore)(nil)
	_ ports.PluginStore     = (*SQLiteStore)(nil)
	_ ports.OptionStore     = (*SQLiteStore)(nil)
	_ ports.HelpStore       = (*SQLiteStore)(nil)
)
