// Package command runs manifest-declared post-install hook commands
// (SPEC_FULL.md §4.7 step 7, spec.md §4.7) with template variable
// substitution.
package command

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"text/template"
)

// Vars holds variables for command template substitution.
type Vars struct {
	Package string // Package path (e.g., golang.org/x/tools/gopls)
	Version string // Version string (e.g., v0.16.0)
	Name    string // Tool name (e.g., gopls)
	BinPath string // Binary path (e.g., ~/go/bin/gopls)
	Args    string // Additional arguments (space-joined, e.g., "--with-executables-from ansible-core")
}

// Executor executes shell commands with variable substitution.
type Executor struct {
	workDir string
}

// NewExecutor creates a new Executor.
func NewExecutor(workDir string) *Executor {
	return &Executor{
		workDir: workDir,
	}
}

// expandCommands joins multiple commands with " && " and applies template variable substitution.
func (e *Executor) expandCommands(cmds []string, vars Vars) (string, error) {
	return e.expand(strings.Join(cmds, " && "), vars)
}

// buildCommand creates an exec.Cmd with the expanded command string, working directory, and environment.
func (e *Executor) buildCommand(ctx context.Context, expanded string, env map[string]string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "sh", "-c", expanded)
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	return cmd
}

// ExecuteWithEnv runs command(s) with additional environment variables.
// Multiple commands are joined with " && ".
func (e *Executor) ExecuteWithEnv(ctx context.Context, cmds []string, vars Vars, env map[string]string) error {
	expanded, err := e.expandCommands(cmds, vars)
	if err != nil {
		return err
	}

	slog.Debug("executing command", "command", expanded)

	cmd := e.buildCommand(ctx, expanded, env)

	output, err := cmd.CombinedOutput()
	if err != nil {
		slog.Error("command failed", "command", expanded, "error", err, "output", string(output))
		return fmt.Errorf("command failed: %s: %w", expanded, err)
	}

	slog.Debug("command succeeded", "command", expanded, "output", string(output))
	return nil
}

// expand substitutes variables in the command string using text/template.
func (e *Executor) expand(cmdStr string, vars Vars) (string, error) {
	tmpl, err := template.New("cmd").Parse(cmdStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse command template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute command template: %w", err)
	}

	return buf.String(), nil
}
