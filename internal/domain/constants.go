package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultPluginTimeout bounds how long the shell waits for a plugin
	// process to finish writing its protocol output
	DefaultPluginTimeout = 10 * time.Second
)

// Plugin API versioning
const (
	// EngineAPIVersion is the protocol version this engine speaks
	EngineAPIVersion = "1.1"
	// MinPluginAPIVersion is the lowest declared plugin version accepted
	// by the add operation
	MinPluginAPIVersion = "1.0"
)
