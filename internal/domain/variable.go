package domain

import "time"

// VariableDefinition is a directory-scoped environment variable. Unlike
// aliases, variable names are not unique per path: when several in-scope
// definitions share a name the newest one (highest identifier) supplies
// the value, so a later add overrides an earlier value without deleting
// the older definition.
type VariableDefinition struct {
	ID          int64
	Name        string
	Directory   string
	Recursive   bool
	Value       string
	Description string
	CreatedAt   time.Time
}

// InScope reports whether the definition applies in dir.
func (v VariableDefinition) InScope(dir string) bool {
	return directoryInScope(v.Directory, dir, v.Recursive)
}
