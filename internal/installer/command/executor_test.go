package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor(t *testing.T) {
	t.Parallel()
	e := NewExecutor("/tmp")
	assert.NotNil(t, e)
	assert.Equal(t, "/tmp", e.workDir)
}

func TestExecutor_expand(t *testing.T) {
	t.Parallel()
	e := NewExecutor("")

	tests := []struct {
		name     string
		cmdStr   string
		vars     Vars
		expected string
	}{
		{
			name:   "expand all variables",
			cmdStr: "go install {{.Package}}@{{.Version}}",
			vars: Vars{
				Package: "golang.org/x/tools/gopls",
				Version: "v0.16.0",
			},
			expected: "go install golang.org/x/tools/gopls@v0.16.0",
		},
		{
			name:   "expand name and binpath",
			cmdStr: "rm -f {{.BinPath}}/{{.Name}}",
			vars: Vars{
				Name:    "gopls",
				BinPath: "/home/user/go/bin",
			},
			expected: "rm -f /home/user/go/bin/gopls",
		},
		{
			name:     "no variables",
			cmdStr:   "echo hello",
			vars:     Vars{},
			expected: "echo hello",
		},
		{
			name:   "expand args",
			cmdStr: "uv tool install {{.Package}}=={{.Version}} {{.Args}}",
			vars: Vars{
				Package: "ansible",
				Version: "13.3.0",
				Args:    "--with-executables-from ansible-core",
			},
			expected: "uv tool install ansible==13.3.0 --with-executables-from ansible-core",
		},
		{
			name:   "args with conditional template",
			cmdStr: "go install {{.Package}}@{{.Version}}{{if .Args}} {{.Args}}{{end}}",
			vars: Vars{
				Package: "golang.org/x/tools/gopls",
				Version: "v0.16.0",
				Args:    "",
			},
			expected: "go install golang.org/x/tools/gopls@v0.16.0",
		},
		{
			name:   "empty variable values",
			cmdStr: "cmd {{.Package}} {{.Version}}",
			vars: Vars{
				Package: "",
				Version: "",
			},
			expected: "cmd  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := e.expand(tt.cmdStr, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExecutor_ExecuteWithEnv(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		t.Parallel()
		e := NewExecutor("")
		err := e.ExecuteWithEnv(ctx, []string{"echo hello"}, Vars{}, nil)
		require.NoError(t, err)
	})

	t.Run("command with variables", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		testFile := filepath.Join(tmpDir, "test.txt")

		e := NewExecutor("")
		err := e.ExecuteWithEnv(ctx, []string{"echo {{.Name}} > " + testFile}, Vars{Name: "gopls"}, nil)
		require.NoError(t, err)

		content, err := os.ReadFile(testFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "gopls")
	})

	t.Run("multiple commands joined with &&", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		testFile := filepath.Join(tmpDir, "multi.txt")

		e := NewExecutor("")
		err := e.ExecuteWithEnv(ctx, []string{"echo one > " + testFile, "echo two >> " + testFile}, Vars{}, nil)
		require.NoError(t, err)

		content, err := os.ReadFile(testFile)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo\n", string(content))
	})

	t.Run("failing command", func(t *testing.T) {
		t.Parallel()
		e := NewExecutor("")
		err := e.ExecuteWithEnv(ctx, []string{"exit 1"}, Vars{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command failed")
	})

	t.Run("with working directory", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		e := NewExecutor(tmpDir)
		err := e.ExecuteWithEnv(ctx, []string{"pwd > output.txt"}, Vars{}, nil)
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(tmpDir, "output.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(content), tmpDir)
	})

	t.Run("with environment variables", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		testFile := filepath.Join(tmpDir, "env_test.txt")
		e := NewExecutor("")

		env := map[string]string{
			"MY_VAR": "test_value",
		}

		err := e.ExecuteWithEnv(ctx, []string{"echo $MY_VAR > " + testFile}, Vars{}, env)
		require.NoError(t, err)

		content, err := os.ReadFile(testFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test_value")
	})
}

func TestExecutor_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	e := NewExecutor("")
	err := e.ExecuteWithEnv(ctx, []string{"sleep 10"}, Vars{}, nil)
	require.Error(t, err)
}
