package domain

import "time"

// Config is the YAML configuration persisted at ~/.dirsh/config.yaml.
type Config struct {
	ConfigFormatVersion string `yaml:"config_format_version"`

	// Shell is the system command interpreter used for external
	// commands that are not run through the exec built-in.
	Shell string `yaml:"shell"`

	// DatabasePath locates the SQLite database holding aliases,
	// variables, plugin records, options, and help topics.
	DatabasePath string `yaml:"database_path"`

	// HistoryFile is the readline history location.
	HistoryFile string `yaml:"history_file"`

	// PluginTimeoutSeconds bounds how long a plugin call may keep its
	// output stream open before the call is treated as failed.
	PluginTimeoutSeconds int `yaml:"plugin_timeout_seconds"`

	// Color toggles styled terminal output.
	Color bool `yaml:"color"`
}

// PluginTimeout returns the configured timeout as a duration.
func (c Config) PluginTimeout() time.Duration {
	if c.PluginTimeoutSeconds <= 0 {
		return DefaultPluginTimeout
	}
	return time.Duration(c.PluginTimeoutSeconds) * time.Second
}
