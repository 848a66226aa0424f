package workspace

import (
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"

	"github.com/monover/monover/internal/errors"
)

// FilterOptions selects a subset of discovered workspaces. Name patterns
// match the package name, path patterns match the workspace directory
// relative to the repository root. All patterns use glob syntax; an empty
// include list means "include everything".
type FilterOptions struct {
	Include      []string
	Exclude      []string
	IncludePaths []string
	ExcludePaths []string
}

// IsZero reports whether no filtering was requested.
func (o FilterOptions) IsZero() bool {
	return len(o.Include) == 0 && len(o.Exclude) == 0 &&
		len(o.IncludePaths) == 0 && len(o.ExcludePaths) == 0
}

// Validate compiles every pattern and reports all invalid ones at once.
func (o FilterOptions) Validate() error {
	var result *multierror.Error
	for _, group := range [][]string{o.Include, o.Exclude, o.IncludePaths, o.ExcludePaths} {
		for _, pattern := range group {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				result = multierror.Append(result,
					errors.NewConfigError("filter", pattern, errors.Wrap(errors.ErrInvalidConfiguration, err.Error())))
			}
		}
	}
	return result.ErrorOrNil()
}

// Filter applies the include and exclude pattern sets to workspaces,
// preserving order. root anchors the relative paths that path patterns
// match against.
func Filter(workspaces []*Workspace, root string, opts FilterOptions) ([]*Workspace, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.IsZero() {
		return workspaces, nil
	}

	include := compile(opts.Include)
	exclude := compile(opts.Exclude)
	includePaths := compile(opts.IncludePaths)
	excludePaths := compile(opts.ExcludePaths)

	var filtered []*Workspace
	for _, ws := range workspaces {
		rel := relPath(root, ws.Dir)

		if len(include) > 0 && !matchAny(include, ws.Name) {
			continue
		}
		if matchAny(exclude, ws.Name) {
			continue
		}
		if len(includePaths) > 0 && !matchAny(includePaths, rel) {
			continue
		}
		if matchAny(excludePaths, rel) {
			continue
		}
		filtered = append(filtered, ws)
	}
	return filtered, nil
}

// compile turns validated pattern strings into matchers. Validate has
// already rejected malformed patterns, so compilation cannot fail here.
func compile(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		globs = append(globs, glob.MustCompile(pattern, '/'))
	}
	return globs
}

func matchAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}

// relPath returns dir relative to root with forward slashes, falling back
// to the absolute path when dir is outside root.
func relPath(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}
