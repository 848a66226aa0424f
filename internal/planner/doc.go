// Package planner combines the git query layer with workspace discovery
// to answer two questions about a monorepo: which workspaces changed
// since a reference commit, and what the next semantic version of each
// workspace should be.
//
// Versions are derived from release tags of the form <name>-<version>.
// For each workspace the planner walks its tags newest first, takes the
// first one that is an ancestor of HEAD as the reference point, and
// classifies the conventional-commit messages under the workspace path
// since that point into the semver increment to apply. A workspace that
// has never been tagged is measured from its first commit, using the
// version recorded in its own manifest.
package planner
