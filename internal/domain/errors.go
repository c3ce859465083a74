package domain

import "errors"

// Error kinds surfaced by the core. All of them are recovered at the
// execution pipeline boundary and reported as a failed line; none of
// them terminate the shell process.
var (
	// ErrNotFound indicates a missing alias, variable, command, or
	// plugin referenced by name or identifier.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate name on add.
	ErrAlreadyExists = errors.New("already exists")

	// ErrForbidden indicates an attempt to mutate a reserved built-in.
	ErrForbidden = errors.New("forbidden")

	// ErrMissingArgument indicates an alias was invoked without a
	// positional argument its body references.
	ErrMissingArgument = errors.New("missing argument")

	// ErrPluginUnavailable indicates a plugin process could not be
	// spawned, or failed the info/API-version handshake.
	ErrPluginUnavailable = errors.New("plugin unavailable")

	// ErrProtocolViolation indicates a malformed plugin output line.
	// The line is dropped; the call as a whole may still succeed.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrParse indicates a malformed input line, e.g. a trailing merge
	// operator. The whole line is rejected before anything runs.
	ErrParse = errors.New("parse error")
)
