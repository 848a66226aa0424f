// Package config loads monover settings from flags, MONOVER_* environment
// variables, and the repository's .monover.yaml, in that order of
// precedence.
package config
