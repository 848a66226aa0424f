package workspace

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/monover/monover/internal/errors"
)

// ManifestName is the per-package manifest file that marks a workspace root.
const ManifestName = "package.json"

// Workspace is a single package within a monorepo.
type Workspace struct {
	// Name is the package name from the manifest.
	Name string

	// Version is the current version recorded in the manifest.
	Version string

	// Dir is the absolute path of the workspace directory.
	Dir string
}

// manifest is the subset of package.json fields monover reads.
type manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`
}

// Discover walks root and returns a workspace for every package manifest
// found below it. The manifest at root itself describes the monorepo, not
// a package, and is skipped, as are node_modules and .git trees.
func Discover(root string) ([]*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve workspace root %s", root)
	}

	var workspaces []*Workspace
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "node_modules", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ManifestName {
			return nil
		}

		dir := filepath.Dir(path)
		if dir == absRoot {
			return nil
		}

		ws, err := load(path)
		if err != nil {
			return err
		}
		workspaces = append(workspaces, ws)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(workspaces) == 0 {
		return nil, errors.Wrapf(errors.ErrNoWorkspaces, "under %s", absRoot)
	}
	return workspaces, nil
}

// load reads a single workspace manifest.
func load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %s", path)
	}
	if m.Name == "" {
		return nil, errors.Errorf("manifest %s has no name", path)
	}

	return &Workspace{
		Name:    m.Name,
		Version: m.Version,
		Dir:     filepath.Dir(path),
	}, nil
}
