//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/monover/monover/internal/git"
	"github.com/monover/monover/internal/planner"
	"github.com/monover/monover/internal/workspace"
)

// setupMonorepo creates a git repository laid out as a two-package
// monorepo with an initial scaffold commit on master.
func setupMonorepo(t *testing.T) string {
	t.Helper()

	root, err := os.MkdirTemp("", "monover-integration-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(root) })

	mustGit(t, root, "init", "--initial-branch=master", ".")
	mustGit(t, root, "config", "user.email", "test@example.com")
	mustGit(t, root, "config", "user.name", "Test User")

	writePackage(t, root, "pkg-a", "1.0.0")
	writePackage(t, root, "pkg-b", "2.0.0")
	mustGit(t, root, "add", ".")
	mustGit(t, root, "commit", "-m", "chore: scaffold monorepo")

	return root
}

func writePackage(t *testing.T, root, name, version string) {
	t.Helper()

	dir := filepath.Join(root, "packages", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create package dir: %v", err)
	}
	content := `{"name": "` + name + `", "version": "` + version + `"}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
}

func commitFile(t *testing.T, root, relPath, content, message string) {
	t.Helper()

	path := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", relPath, err)
	}
	mustGit(t, root, "add", ".")
	mustGit(t, root, "commit", "-m", message)
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func newPlanner(root string) (*planner.Planner, *git.Client) {
	client := git.New(root, nil)
	return planner.New(client, nil), client
}

func TestFullVersionPlan(t *testing.T) {
	root := setupMonorepo(t)
	ctx := context.Background()

	// Release pkg-a 1.0.0, then land a feature on it and a fix on the
	// never-released pkg-b.
	mustGit(t, root, "tag", "-a", "pkg-a-1.0.0", "-m", "Release pkg-a 1.0.0")
	commitFile(t, root, "packages/pkg-a/stream.ts", "export {};\n", "feat: streaming mode")
	commitFile(t, root, "packages/pkg-b/fix.ts", "export {};\n", "fix: handle nulls")

	p, _ := newPlanner(root)
	workspaces, err := p.ListWorkspaces(workspace.FilterOptions{})
	if err != nil {
		t.Fatalf("ListWorkspaces returned unexpected error: %v", err)
	}
	if len(workspaces) != 2 {
		t.Fatalf("Expected 2 workspaces, got %d", len(workspaces))
	}

	plan, err := p.NextVersionsForWorkspaces(ctx, workspaces)
	if err != nil {
		t.Fatalf("NextVersionsForWorkspaces returned unexpected error: %v", err)
	}

	// pkg-a: tagged 1.0.0, one feat since the tag.
	if plan["pkg-a"] != "1.1.0" {
		t.Errorf("Expected pkg-a 1.1.0, got %q", plan["pkg-a"])
	}
	// pkg-b: never tagged, so measured from its first commit with the
	// manifest version as the base; the fix bumps the patch level.
	if plan["pkg-b"] != "2.0.1" {
		t.Errorf("Expected pkg-b 2.0.1, got %q", plan["pkg-b"])
	}
}

func TestTagOnSideBranchIsIgnored(t *testing.T) {
	root := setupMonorepo(t)
	ctx := context.Background()

	mustGit(t, root, "tag", "-a", "pkg-a-1.0.0", "-m", "Release pkg-a 1.0.0")

	// Tag a newer release on a side branch that master never merged.
	mustGit(t, root, "checkout", "-b", "abandoned")
	commitFile(t, root, "packages/pkg-a/wip.ts", "export {};\n", "feat: unreleased work")
	mustGit(t, root, "tag", "-a", "pkg-a-1.1.0", "-m", "Release pkg-a 1.1.0")
	mustGit(t, root, "checkout", "master")

	commitFile(t, root, "packages/pkg-a/fix.ts", "export {};\n", "fix: correct parser")

	p, _ := newPlanner(root)
	workspaces, err := p.ListWorkspaces(workspace.FilterOptions{Include: []string{"pkg-a"}})
	if err != nil {
		t.Fatalf("ListWorkspaces returned unexpected error: %v", err)
	}

	plan, err := p.NextVersionsForWorkspaces(ctx, workspaces)
	if err != nil {
		t.Fatalf("NextVersionsForWorkspaces returned unexpected error: %v", err)
	}

	// pkg-a-1.1.0 sorts newest but is not an ancestor of HEAD, so the
	// reference falls back to pkg-a-1.0.0 and the fix yields 1.0.1.
	if plan["pkg-a"] != "1.0.1" {
		t.Errorf("Expected pkg-a 1.0.1, got %q", plan["pkg-a"])
	}
}

func TestChangedWorkspacesSinceBranchPoint(t *testing.T) {
	root := setupMonorepo(t)
	ctx := context.Background()

	mustGit(t, root, "checkout", "-b", "feature")
	commitFile(t, root, "packages/pkg-b/util.ts", "export {};\n", "feat: add util")
	commitFile(t, root, "README.md", "# monorepo\n", "docs: describe layout")

	p, _ := newPlanner(root)
	changed, err := p.WorkspacesChangedSinceRef(ctx, "master", workspace.FilterOptions{})
	if err != nil {
		t.Fatalf("WorkspacesChangedSinceRef returned unexpected error: %v", err)
	}

	// The README change maps to no workspace and must be dropped.
	if len(changed) != 1 || changed[0].Name != "pkg-b" {
		names := make([]string, 0, len(changed))
		for _, ws := range changed {
			names = append(names, ws.Name)
		}
		t.Errorf("Expected only pkg-b to be changed, got %v", names)
	}
}

func TestChangesSinceLastTagBucketsBasenames(t *testing.T) {
	root := setupMonorepo(t)
	ctx := context.Background()

	mustGit(t, root, "tag", "-a", "pkg-a-1.0.0", "-m", "Release pkg-a 1.0.0")
	commitFile(t, root, "packages/pkg-a/src/parser.ts", "export {};\n", "feat: add parser")

	p, _ := newPlanner(root)
	changes, err := p.ChangesSinceLastTagByWorkspace(ctx, workspace.FilterOptions{})
	if err != nil {
		t.Fatalf("ChangesSinceLastTagByWorkspace returned unexpected error: %v", err)
	}

	dirA := filepath.Join(root, "packages", "pkg-a")
	dirB := filepath.Join(root, "packages", "pkg-b")

	if len(changes[dirA]) != 1 || changes[dirA][0] != "parser.ts" {
		t.Errorf("Expected pkg-a changes [parser.ts], got %v", changes[dirA])
	}
	if files, ok := changes[dirB]; !ok || len(files) != 0 {
		t.Errorf("Expected pkg-b to have an empty entry, got %v (present=%v)", files, ok)
	}
}

func TestTagCreationRoundTrip(t *testing.T) {
	root := setupMonorepo(t)
	ctx := context.Background()

	_, client := newPlanner(root)

	if err := client.CreateTag(ctx, "pkg-a-1.0.0", "Release pkg-a 1.0.0", ""); err != nil {
		t.Fatalf("CreateTag returned unexpected error: %v", err)
	}

	tags, err := client.ListTags(ctx, true)
	if err != nil {
		t.Fatalf("ListTags returned unexpected error: %v", err)
	}
	if len(tags) != 1 || tags[0] != "pkg-a-1.0.0" {
		t.Errorf("Expected [pkg-a-1.0.0], got %v", tags)
	}

	ok, err := client.IsAncestor(ctx, "pkg-a-1.0.0")
	if err != nil {
		t.Fatalf("IsAncestor returned unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("Expected the new tag to be an ancestor of HEAD")
	}
}
