package domain

// ExecRequest describes one external command invocation.
type ExecRequest struct {
	// Command is the raw command line handed to the system shell, or
	// split into argv and run directly when Direct is set.
	Command string
	// Direct bypasses the system shell (the exec built-in).
	Direct bool
	// OutputToStderr redirects the child's standard output to stderr.
	OutputToStderr bool
	// OutputFile appends the child's standard output to the named file.
	OutputFile string
}

// Interactive reports whether the child should inherit the shell's
// standard input. Redirected output modes never get the terminal.
func (r ExecRequest) Interactive() bool {
	return !r.OutputToStderr && r.OutputFile == ""
}

// ExecResult captures the outcome of an external command.
type ExecResult struct {
	Ran        bool
	ExitCode   int
	Err        error
	DurationMS int64
}

// Success reports whether the command ran and exited zero.
func (r ExecResult) Success() bool {
	return r.Ran && r.ExitCode == 0 && r.Err == nil
}
