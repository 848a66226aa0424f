package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/monover/monover/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// Execute runs a command, discarding its output
	Execute(ctx context.Context, cmd *exec.Cmd) error

	// ExecuteWithOutput runs a command and returns its stdout
	ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct{}

// Execute implements CommandExecutor.Execute
func (e *ExecExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return newExecError(cmd, err, stderr.String())
	}
	return nil
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", newExecError(cmd, err, stderr.String())
	}
	return stdout.String(), nil
}

// newExecError converts a failed exec.Cmd run into a GitError that wraps
// the ErrGitOperationFailed sentinel and carries the process exit code.
func newExecError(cmd *exec.Cmd, err error, stderr string) error {
	operation := ""
	var args []string
	if len(cmd.Args) > 0 {
		operation = cmd.Args[0]
	}
	if len(cmd.Args) > 1 {
		args = cmd.Args[1:]
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	wrappedErr := errors.Wrap(errors.ErrGitOperationFailed, err.Error())
	return errors.NewGitError(operation, args, exitCode, wrappedErr, strings.TrimSpace(stderr))
}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}
