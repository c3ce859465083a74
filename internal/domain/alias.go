// Package domain defines core business entities and value objects for dirsh.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic: alias and variable definitions with their
// directory-scoping rules, the command registry entries, and the plugin
// records exchanged with the plugin host.
package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Output modes for alias execution. Anything else stored in the Output
// field is interpreted as a file path to append standard output to.
const (
	OutputInherit = "stdout"
	OutputStderr  = "stderr"
)

var definitionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidDefinitionName reports whether name is acceptable for an alias or
// variable definition.
func ValidDefinitionName(name string) bool {
	return definitionNamePattern.MatchString(name)
}

// AliasDefinition is a named, directory-scoped substitution for one or
// more shell commands. Identifiers are assigned monotonically by the
// store and never reused for tie-breaking purposes.
type AliasDefinition struct {
	ID          int64
	Name        string
	Directory   string
	Recursive   bool
	Commands    []string
	Description string
	Output      string
	CreatedAt   time.Time
}

// OutputFile returns the append-target path, or "" when output is
// inherited or redirected to stderr.
func (a AliasDefinition) OutputFile() string {
	if a.Output == OutputInherit || a.Output == OutputStderr || a.Output == "" {
		return ""
	}
	return a.Output
}

// InScope reports whether the definition applies in dir. Recursive
// definitions match dir and every descendant; comparison is per path
// segment so /home/use never captures /home/user.
func (a AliasDefinition) InScope(dir string) bool {
	return directoryInScope(a.Directory, dir, a.Recursive)
}

// Expand substitutes positional parameters into the alias body. $1..$9
// take the invocation arguments in order, $0 takes all of them joined by
// a single space. Referencing a position that was not supplied is an
// error; aliases never silently expand to the empty string.
func (a AliasDefinition) Expand(args []string) ([]string, error) {
	expanded := make([]string, 0, len(a.Commands))
	for _, command := range a.Commands {
		line, err := substitutePositionals(command, args)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", a.Name, err)
		}
		expanded = append(expanded, line)
	}
	return expanded, nil
}

var positionalPattern = regexp.MustCompile(`\$[0-9]`)

func substitutePositionals(command string, args []string) (string, error) {
	var substErr error
	out := positionalPattern.ReplaceAllStringFunc(command, func(token string) string {
		pos := int(token[1] - '0')
		if pos == 0 {
			return strings.Join(args, " ")
		}
		if pos > len(args) {
			if substErr == nil {
				substErr = fmt.Errorf("%w: %s", ErrMissingArgument, token)
			}
			return token
		}
		return args[pos-1]
	})
	if substErr != nil {
		return "", substErr
	}
	return out, nil
}

// directoryInScope implements the shared scoping rule for aliases and
// variables.
func directoryInScope(defDir, current string, recursive bool) bool {
	defDir = filepath.Clean(defDir)
	current = filepath.Clean(current)
	if defDir == current {
		return true
	}
	if !recursive {
		return false
	}
	sep := string(filepath.Separator)
	prefix := defDir
	if prefix != sep {
		prefix += sep
	}
	return strings.HasPrefix(current, prefix)
}
