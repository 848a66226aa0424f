// Package workspace discovers the packages of a monorepo and filters
// them by name or path patterns.
package workspace
