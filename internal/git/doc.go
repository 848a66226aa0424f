// Package git is the query layer over the git command-line tool.
//
// Every operation shells out to `git -C <repo> ...` through a
// CommandExecutor so that callers and tests can substitute their own
// process execution. All operations are read-only except CreateTag and
// PushTags. Two subprocess failures are deliberately tolerated rather
// than surfaced: resolving a ref that does not exist (ResolveRef and
// LatestTag return the empty string) and the exit-code-1 "not an
// ancestor" answer from merge-base --is-ancestor (IsAncestor returns
// false). Everything else propagates as a *errors.GitError.
package git
