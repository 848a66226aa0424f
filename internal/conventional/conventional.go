// Package conventional classifies conventional-commit messages into the
// release type they call for.
package conventional

import (
	"regexp"
	"strings"
)

// ReleaseType is the version increment a set of commits calls for.
// Higher values take precedence when aggregating.
type ReleaseType int

const (
	// ReleaseNone means no release-worthy commits were found.
	ReleaseNone ReleaseType = iota

	// ReleasePatch covers fixes and performance work.
	ReleasePatch

	// ReleaseMinor covers new backwards-compatible features.
	ReleaseMinor

	// ReleaseMajor covers breaking changes.
	ReleaseMajor
)

// String returns the semver increment keyword for the release type.
func (rt ReleaseType) String() string {
	switch rt {
	case ReleasePatch:
		return "patch"
	case ReleaseMinor:
		return "minor"
	case ReleaseMajor:
		return "major"
	default:
		return "none"
	}
}

// headerPattern matches the conventional-commit header form
// `type(scope)!: subject`. The scope and the breaking-change marker
// are optional.
var headerPattern = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s+`)

// breakingFooterPattern matches the footer that marks a breaking change
// regardless of commit type.
var breakingFooterPattern = regexp.MustCompile(`(?m)^BREAKING[ -]CHANGE:`)

// Split breaks the raw output of a separator-delimited git log into
// individual commit messages, dropping empty entries.
func Split(raw, separator string) []string {
	var messages []string
	for _, chunk := range strings.Split(raw, separator+"\n") {
		chunk = strings.TrimSpace(strings.TrimSuffix(chunk, separator))
		if chunk != "" {
			messages = append(messages, chunk)
		}
	}
	return messages
}

// Classify returns the highest release type called for by any of the
// given commit messages.
func Classify(messages []string) ReleaseType {
	release := ReleaseNone
	for _, msg := range messages {
		if rt := ClassifyMessage(msg); rt > release {
			release = rt
		}
		if release == ReleaseMajor {
			break
		}
	}
	return release
}

// ClassifyLog splits separator-delimited git log output and classifies
// the resulting messages.
func ClassifyLog(raw, separator string) ReleaseType {
	return Classify(Split(raw, separator))
}

// ClassifyMessage returns the release type a single commit message calls
// for. Messages that do not follow the conventional-commit form, and
// conventional types with no release semantics (docs, chore, refactor...),
// classify as ReleaseNone.
func ClassifyMessage(msg string) ReleaseType {
	if breakingFooterPattern.MatchString(msg) {
		return ReleaseMajor
	}

	m := headerPattern.FindStringSubmatch(msg)
	if m == nil {
		return ReleaseNone
	}
	if m[3] == "!" {
		return ReleaseMajor
	}

	switch strings.ToLower(m[1]) {
	case "feat":
		return ReleaseMinor
	case "fix", "perf", "revert":
		return ReleasePatch
	default:
		return ReleaseNone
	}
}
