// Package config loads the shell configuration file.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/pkg/filesystem"
	"github.com/doeshing/dirsh/internal/ports"
)

// FileLoader loads YAML configuration from ~/.dirsh/config.yaml
// (overridable via DIRSH_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("DIRSH_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".dirsh", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

func defaultConfig() domain.Config {
	home := filesystem.UserHomeDir()
	return domain.Config{
		ConfigFormatVersion:  "1",
		Shell:                "",
		DatabasePath:         filepath.Join(home, ".dirsh", "dirsh.db"),
		HistoryFile:          filepath.Join(home, ".dirsh", "history"),
		PluginTimeoutSeconds: int(domain.DefaultPluginTimeout.Seconds()),
		Color:                true,
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	home := filesystem.UserHomeDir()
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(home, ".dirsh", "dirsh.db")
	} else {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(home, ".dirsh", "history")
	} else {
		cfg.HistoryFile = expandPath(cfg.HistoryFile)
	}
	if cfg.PluginTimeoutSeconds <= 0 {
		cfg.PluginTimeoutSeconds = int(domain.DefaultPluginTimeout.Seconds())
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
