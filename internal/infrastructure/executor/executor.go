// Package executor runs external commands on the host, either through
// the configured system shell or directly.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/doeshing/dirsh/internal/domain"
	"github.com/doeshing/dirsh/internal/ports"
)

// LocalExecutor runs commands on the host shell.
type LocalExecutor struct {
	shell string
}

// NewLocalExecutor builds a new executor, shell defaults to /bin/sh.
func NewLocalExecutor(shell string) *LocalExecutor {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &LocalExecutor{shell: shell}
}

// Shell returns the configured command interpreter.
func (e *LocalExecutor) Shell() string {
	return e.shell
}

// Execute implements ports.CommandExecutor. Quoting and globbing of the
// command line are the system shell's job; in direct mode the line is
// split on whitespace and run without an interpreter.
func (e *LocalExecutor) Execute(ctx context.Context, req domain.ExecRequest) (domain.ExecResult, error) {
	var c *exec.Cmd
	if req.Direct {
		argv := strings.Fields(req.Command)
		if len(argv) == 0 {
			return domain.ExecResult{}, fmt.Errorf("empty command: %w", domain.ErrParse)
		}
		c = exec.CommandContext(ctx, argv[0], argv[1:]...)
	} else {
		c = exec.CommandContext(ctx, e.shell, "-c", req.Command)
	}

	c.Stderr = os.Stderr
	var cleanup func() error
	switch {
	case req.OutputToStderr:
		c.Stdout = os.Stderr
	case req.OutputFile != "":
		f, err := os.OpenFile(req.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
		if err != nil {
			return domain.ExecResult{}, fmt.Errorf("open output file: %w", err)
		}
		c.Stdout = f
		cleanup = f.Close
	default:
		c.Stdout = os.Stdout
	}
	if req.Interactive() {
		c.Stdin = os.Stdin
	}

	start := time.Now()
	err := c.Run()
	if cleanup != nil {
		_ = cleanup()
	}

	result := domain.ExecResult{
		Ran:        true,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		result.Ran = false
		result.Err = err
		return result, err
	}
	return result, nil
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
