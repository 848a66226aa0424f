package planner

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/monover/monover/internal/conventional"
	"github.com/monover/monover/internal/errors"
	"github.com/monover/monover/internal/git"
	"github.com/monover/monover/internal/semver"
	"github.com/monover/monover/internal/workspace"
)

// Planner computes per-workspace change sets and next release versions
// for a monorepo. It is stateless: every call reads fresh repository and
// workspace state, so repeated invocations against an unchanged repo
// yield the same output.
type Planner struct {
	git    *git.Client
	logger *zap.Logger
}

// New creates a Planner over the repository the git client is bound to.
func New(gitClient *git.Client, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		git:    gitClient,
		logger: logger,
	}
}

// ListWorkspaces discovers the repository's workspaces and applies the
// given filter options.
func (p *Planner) ListWorkspaces(opts workspace.FilterOptions) ([]*workspace.Workspace, error) {
	workspaces, err := workspace.Discover(p.git.RepoPath())
	if err != nil {
		return nil, err
	}
	return workspace.Filter(workspaces, p.git.RepoPath(), opts)
}

// WorkspaceForFile returns the first workspace whose directory owns file,
// or nil when no workspace does. Ownership is path-prefix containment on
// a separator boundary, so pkg-a never claims files under pkg-ab.
func WorkspaceForFile(file string, workspaces []*workspace.Workspace) *workspace.Workspace {
	file = filepath.Clean(file)
	for _, ws := range workspaces {
		dir := filepath.Clean(ws.Dir)
		if file == dir || strings.HasPrefix(file, dir+string(filepath.Separator)) {
			return ws
		}
	}
	return nil
}

// WorkspacesChangedSinceRef returns the workspaces that own at least one
// file changed since ref, deduplicated by workspace directory in
// first-seen order. Files owned by no workspace (deleted packages,
// repo-level files) are dropped.
func (p *Planner) WorkspacesChangedSinceRef(ctx context.Context, ref string, opts workspace.FilterOptions) ([]*workspace.Workspace, error) {
	files, err := p.git.ChangedFilesSinceRef(ctx, ref, true)
	if err != nil {
		return nil, err
	}

	workspaces, err := p.ListWorkspaces(opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var changed []*workspace.Workspace
	for _, file := range files {
		ws := WorkspaceForFile(file, workspaces)
		if ws == nil || seen[ws.Dir] {
			continue
		}
		seen[ws.Dir] = true
		changed = append(changed, ws)
	}

	p.logger.Debug("workspaces changed since ref",
		zap.String("ref", ref),
		zap.Int("count", len(changed)))

	return changed, nil
}

// ChangesSinceLastTagByWorkspace buckets the basenames of files changed
// since the last release tag by owning workspace directory. Every known
// workspace gets an entry; unchanged ones map to an empty list.
func (p *Planner) ChangesSinceLastTagByWorkspace(ctx context.Context, opts workspace.FilterOptions) (map[string][]string, error) {
	lastTag, err := p.lastAncestorTag(ctx)
	if err != nil {
		return nil, err
	}

	files, err := p.git.ChangedFilesSinceRef(ctx, lastTag, true)
	if err != nil {
		return nil, err
	}

	workspaces, err := p.ListWorkspaces(opts)
	if err != nil {
		return nil, err
	}

	changes := make(map[string][]string, len(workspaces))
	for _, ws := range workspaces {
		changes[ws.Dir] = []string{}
	}
	for _, file := range files {
		ws := WorkspaceForFile(file, workspaces)
		if ws == nil {
			continue
		}
		changes[ws.Dir] = append(changes[ws.Dir], filepath.Base(file))
	}
	return changes, nil
}

// lastAncestorTag scans the newest-first tag list and returns the first
// tag that is an ancestor of HEAD. The scan order makes the tie-break
// deterministic. Returns the empty string when no tag qualifies, which
// downstream diffing rejects as a missing ref.
func (p *Planner) lastAncestorTag(ctx context.Context) (string, error) {
	tags, err := p.git.ListTags(ctx, true)
	if err != nil {
		return "", err
	}

	for _, tag := range tags {
		ok, err := p.git.IsAncestor(ctx, tag)
		if err != nil {
			return "", err
		}
		if ok {
			return tag, nil
		}
	}
	return "", nil
}

// NextVersionForWorkspace computes the next version for a single
// workspace. tags must already be filtered to this workspace's
// `<name>-<version>` tags, newest first. With no prior tag the reference
// is the workspace's first commit and the current version comes from its
// manifest; otherwise the reference is the first ancestor tag and the
// current version is the tag with the name prefix stripped.
func (p *Planner) NextVersionForWorkspace(ctx context.Context, tags []string, ws *workspace.Workspace) (map[string]string, error) {
	ref := ""
	current := ws.Version

	for _, tag := range tags {
		ok, err := p.git.IsAncestor(ctx, tag)
		if err != nil {
			return nil, err
		}
		if ok {
			ref = tag
			current = strings.TrimPrefix(tag, ws.Name+"-")
			break
		}
	}

	if ref == "" {
		first, err := p.git.FirstCommitInPath(ctx, ws.Dir)
		if err != nil {
			return nil, err
		}
		ref = first
	}

	raw, err := p.git.CommitsSinceRef(ctx, ref, ws.Dir)
	if err != nil {
		return nil, err
	}

	release := conventional.ClassifyLog(raw, git.CommitSeparator)
	next, err := semver.Increment(current, release)
	if err != nil {
		return nil, errors.NewVersionError(ws.Name, current, err)
	}

	p.logger.Debug("computed next version",
		zap.String("workspace", ws.Name),
		zap.String("current", current),
		zap.String("release", release.String()),
		zap.String("next", next))

	return map[string]string{ws.Name: next}, nil
}

// NextVersionsForWorkspaces computes next versions for all given
// workspaces concurrently. The batch is fail-fast: the first error
// aborts the whole computation and no partial result is returned.
func (p *Planner) NextVersionsForWorkspaces(ctx context.Context, workspaces []*workspace.Workspace) (map[string]string, error) {
	tags, err := p.git.ListTags(ctx, true)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]string, len(workspaces))
	g, gctx := errgroup.WithContext(ctx)
	for i, ws := range workspaces {
		g.Go(func() error {
			prefix := ws.Name + "-"
			var wsTags []string
			for _, tag := range tags {
				if strings.HasPrefix(tag, prefix) {
					wsTags = append(wsTags, tag)
				}
			}

			versions, err := p.NextVersionForWorkspace(gctx, wsTags, ws)
			if err != nil {
				return err
			}
			results[i] = versions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := make(map[string]string, len(workspaces))
	for _, versions := range results {
		for name, next := range versions {
			plan[name] = next
		}
	}
	return plan, nil
}
