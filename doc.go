// Package monover computes release versions for monorepo packages.
//
// monover treats every directory containing a package manifest as a
// workspace. It reads the repository's git history to determine which
// workspaces changed since a reference commit, and combines
// conventional-commit classification with semantic-versioning increment
// rules to compute each workspace's next version from its last release
// tag (an annotated tag of the form <name>-<version>).
//
// The command surface:
//
//	monover changed    # workspaces changed since the reference branch
//	monover changes    # changed files per workspace since the last tag
//	monover plan       # next version for each workspace
//	monover tag        # create (and optionally push) release tags
//
// monover never rewrites history. All git access is read-only except
// `monover tag`, which creates annotated tags and can push them.
package monover
