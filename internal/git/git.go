package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/monover/monover/internal/errors"
)

// CommitSeparator terminates each commit body returned by CommitsSinceRef.
// Consumers split the raw log output on this line to recover individual messages.
const CommitSeparator = "------------------------"

// Client issues read-only git queries against a single repository.
// All commands run as `git -C <repo> ...` through a CommandExecutor,
// so tests can substitute a mock executor.
type Client struct {
	repoPath string
	logger   *zap.Logger
	executor CommandExecutor
}

// New creates a Client for the repository at repoPath.
func New(repoPath string, logger *zap.Logger) *Client {
	return NewWithExecutor(repoPath, logger, NewExecExecutor())
}

// NewWithExecutor creates a Client with a custom command executor.
func NewWithExecutor(repoPath string, logger *zap.Logger, executor CommandExecutor) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		repoPath: repoPath,
		logger:   logger,
		executor: executor,
	}
}

// RepoPath returns the repository path this client is bound to.
func (c *Client) RepoPath() string {
	return c.repoPath
}

// IsRepository checks if the given path is a git repository
func IsRepository(path string) bool {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--is-inside-work-tree")
	executor := NewExecExecutor()
	return executor.Execute(context.Background(), cmd) == nil
}

// ResolveRef resolves a ref name (branch, tag, or hash) to a commit hash.
// A ref that does not exist resolves to the empty string, not an error.
func (c *Client) ResolveRef(ctx context.Context, name string) (string, error) {
	output, err := c.run(ctx, "rev-parse", "--verify", "--quiet", name)
	if err != nil {
		if errors.Is(err, errors.ErrGitOperationFailed) {
			c.logger.Debug("ref does not exist", zap.String("ref", name))
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// LatestTag returns the most recent tag reachable from HEAD.
// Returns the empty string when the repository has no tags.
func (c *Client) LatestTag(ctx context.Context) (string, error) {
	output, err := c.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		if errors.Is(err, errors.ErrGitOperationFailed) {
			c.logger.Debug("no tags found")
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// ChangedFilesSinceRef lists the files that differ between the merge-base of
// ref and HEAD and the current working tree. When fullPath is true the
// returned paths are absolute; otherwise they are repository-relative.
// An empty ref fails with ErrMissingRef.
func (c *Client) ChangedFilesSinceRef(ctx context.Context, ref string, fullPath bool) ([]string, error) {
	if ref == "" {
		return nil, errors.Wrap(errors.ErrMissingRef, "cannot diff")
	}

	base, err := c.run(ctx, "merge-base", ref, "HEAD")
	if err != nil {
		return nil, err
	}
	base = strings.TrimSpace(base)

	output, err := c.run(ctx, "diff", "--name-only", base)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if fullPath {
			line = filepath.Join(c.repoPath, line)
		}
		files = append(files, line)
	}

	c.logger.Debug("changed files since ref",
		zap.String("ref", ref),
		zap.Int("count", len(files)))

	return files, nil
}

// CommitsSinceRef returns the raw concatenated commit message bodies for
// commits between ref and HEAD that touch pathFilter, each body followed
// by a CommitSeparator line.
func (c *Client) CommitsSinceRef(ctx context.Context, ref, pathFilter string) (string, error) {
	if ref == "" {
		return "", errors.Wrap(errors.ErrMissingRef, "cannot list commits")
	}

	args := []string{"log", ref + "..HEAD", "--format=%B%n" + CommitSeparator}
	if pathFilter != "" {
		args = append(args, "--", pathFilter)
	}
	return c.run(ctx, args...)
}

// FirstCommitInPath returns the hash of the earliest commit that touched path.
func (c *Client) FirstCommitInPath(ctx context.Context, path string) (string, error) {
	output, err := c.run(ctx, "log", "--reverse", "--format=%H", "--", path)
	if err != nil {
		return "", err
	}

	lines := strings.SplitN(strings.TrimSpace(output), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}

// ListTags returns all tags in the repository. When newestFirst is true
// the list is sorted newest-first by ref name.
func (c *Client) ListTags(ctx context.Context, newestFirst bool) ([]string, error) {
	args := []string{"tag"}
	if newestFirst {
		args = append(args, "--sort=-refname")
	}

	output, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}

// IsAncestor reports whether ref is an ancestor of HEAD. Git signals
// "not an ancestor" with exit code 1, which is a false result rather
// than an error; any other failure propagates.
func (c *Client) IsAncestor(ctx context.Context, ref string) (bool, error) {
	err := c.runStatus(ctx, "merge-base", "--is-ancestor", ref, "HEAD")
	if err == nil {
		return true, nil
	}

	var gitErr *errors.GitError
	if errors.As(err, &gitErr) && gitErr.ExitCode == 1 {
		return false, nil
	}
	return false, err
}

// CreateTag creates an annotated tag with the given message at ref.
// An empty ref tags HEAD.
func (c *Client) CreateTag(ctx context.Context, name, message, ref string) error {
	args := []string{"tag", "-a", name, "-m", message}
	if ref != "" {
		args = append(args, ref)
	}
	if err := c.runStatus(ctx, args...); err != nil {
		return err
	}

	c.logger.Info("created tag", zap.String("tag", name), zap.String("ref", ref))
	return nil
}

// PushTags pushes all tags to the origin remote.
func (c *Client) PushTags(ctx context.Context) error {
	if err := c.runStatus(ctx, "push", "origin", "--tags"); err != nil {
		return err
	}

	c.logger.Info("pushed tags to origin")
	return nil
}

// run executes a git subcommand in the repository and returns its stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", c.repoPath}, args...)...)
	return c.executor.ExecuteWithOutput(ctx, cmd)
}

// runStatus executes a git subcommand for its exit status only.
func (c *Client) runStatus(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", c.repoPath}, args...)...)
	return c.executor.Execute(ctx, cmd)
}
