package git

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/monover/monover/internal/errors"
)

// MockCommandExecutor is a simple mock of the CommandExecutor interface
// that doesn't actually execute anything but just records calls.
type MockCommandExecutor struct {
	Output              string
	LastCmd             *exec.Cmd
	Commands            []*exec.Cmd
	ExecuteFn           func(ctx context.Context, cmd *exec.Cmd) error
	ExecuteWithOutputFn func(ctx context.Context, cmd *exec.Cmd) (string, error)
}

// Execute implements the CommandExecutor interface
func (m *MockCommandExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	m.LastCmd = cmd
	m.Commands = append(m.Commands, cmd)

	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil
}

// ExecuteWithOutput implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	m.LastCmd = cmd
	m.Commands = append(m.Commands, cmd)

	if m.ExecuteWithOutputFn != nil {
		return m.ExecuteWithOutputFn(ctx, cmd)
	}
	return m.Output, nil
}

// NewMockCommandExecutor creates a new mock executor
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Commands: make([]*exec.Cmd, 0),
	}
}

// gitArgs strips the leading `git -C <repo>` from a recorded command.
func gitArgs(cmd *exec.Cmd) []string {
	if len(cmd.Args) > 3 && cmd.Args[1] == "-C" {
		return cmd.Args[3:]
	}
	return cmd.Args[1:]
}

// failWith builds the error the real executor would produce for a git
// process exiting with the given code.
func failWith(exitCode int, stderr string) error {
	wrapped := errors.Wrap(errors.ErrGitOperationFailed, fmt.Sprintf("exit status %d", exitCode))
	return errors.NewGitError("git", nil, exitCode, wrapped, stderr)
}
