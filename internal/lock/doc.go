// Package lock provides a per-repository process lock used by the
// commands that mutate repository state (tag creation and pushing).
package lock
