package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dirsh/internal/domain"
)

func TestExecuteThroughShell(t *testing.T) {
	e := NewLocalExecutor("/bin/sh")

	result, err := e.Execute(context.Background(), domain.ExecRequest{Command: "true"})
	require.NoError(t, err)
	assert.True(t, result.Success())

	result, err = e.Execute(context.Background(), domain.ExecRequest{Command: "exit 3"})
	require.NoError(t, err)
	assert.True(t, result.Ran)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Success())
}

func TestExecuteDirectBypassesShell(t *testing.T) {
	e := NewLocalExecutor("/bin/sh")

	// "exit 3" is a shell construct; run directly it must fail to spawn.
	_, err := e.Execute(context.Background(), domain.ExecRequest{Command: "exit 3", Direct: true})
	assert.Error(t, err)

	result, err := e.Execute(context.Background(), domain.ExecRequest{Command: "/bin/true", Direct: true})
	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestExecuteMissingProgram(t *testing.T) {
	e := NewLocalExecutor("/bin/sh")
	result, err := e.Execute(context.Background(), domain.ExecRequest{
		Command: "/does/not/exist", Direct: true,
	})
	assert.Error(t, err)
	assert.False(t, result.Ran)
}

func TestOutputFileAppends(t *testing.T) {
	e := NewLocalExecutor("/bin/sh")
	path := filepath.Join(t.TempDir(), "out.log")

	for i := 0; i < 2; i++ {
		result, err := e.Execute(context.Background(), domain.ExecRequest{
			Command:    "echo line",
			OutputFile: path,
		})
		require.NoError(t, err)
		assert.True(t, result.Success())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "line"), "file mode must append, not truncate")
}

func TestShellDefault(t *testing.T) {
	t.Setenv("SHELL", "")
	e := NewLocalExecutor("")
	assert.Equal(t, "/bin/sh", e.Shell())
}
