// Package semver increments semantic version strings by a release type.
package semver

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"

	"github.com/monover/monover/internal/conventional"
	"github.com/monover/monover/internal/errors"
)

// Increment bumps current by the given release type per semantic
// versioning rules. Bumping clears the lower segments and any prerelease
// identifier. When current is already a prerelease of the requested
// increment (the segments below the bumped one are zero), the bump
// finalizes it instead of skipping a release: 1.2.0-rc.1 + patch or
// minor = 1.2.0, 2.0.0-beta.3 + major = 2.0.0. ReleaseNone returns
// current unchanged.
func Increment(current string, rt conventional.ReleaseType) (string, error) {
	v, err := goversion.NewSemver(current)
	if err != nil {
		return "", errors.NewVersionError("", current, err)
	}
	if rt == conventional.ReleaseNone {
		return current, nil
	}

	segments := v.Segments()
	major, minor, patch := segments[0], segments[1], segments[2]
	prerelease := v.Prerelease() != ""

	switch rt {
	case conventional.ReleaseMajor:
		if prerelease && minor == 0 && patch == 0 {
			break
		}
		major, minor, patch = major+1, 0, 0
	case conventional.ReleaseMinor:
		if prerelease && patch == 0 {
			break
		}
		minor, patch = minor+1, 0
	case conventional.ReleasePatch:
		if prerelease {
			break
		}
		patch++
	}

	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}
