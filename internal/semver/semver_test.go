package semver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monover/monover/internal/conventional"
	"github.com/monover/monover/internal/errors"
	"github.com/monover/monover/internal/semver"
)

func TestIncrement(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current  string
		release  conventional.ReleaseType
		expected string
	}{
		"Patch":                       {"1.2.3", conventional.ReleasePatch, "1.2.4"},
		"Minor Clears Patch":          {"1.2.3", conventional.ReleaseMinor, "1.3.0"},
		"Major Clears Lower":          {"1.2.3", conventional.ReleaseMajor, "2.0.0"},
		"Minor From Scenario":         {"1.2.0", conventional.ReleaseMinor, "1.3.0"},
		"None Is Unchanged":           {"1.2.3", conventional.ReleaseNone, "1.2.3"},
		"Patch Finalizes Prerelease":  {"1.2.0-rc.1", conventional.ReleasePatch, "1.2.0"},
		"Minor Finalizes Prerelease":  {"1.2.0-rc.1", conventional.ReleaseMinor, "1.2.0"},
		"Major Finalizes Prerelease":  {"2.0.0-beta.3", conventional.ReleaseMajor, "2.0.0"},
		"Minor Skips Past Used Patch": {"1.2.3-rc.1", conventional.ReleaseMinor, "1.3.0"},
		"Major Skips Past Used Minor": {"2.1.0-beta.3", conventional.ReleaseMajor, "3.0.0"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			next, err := semver.Increment(test.current, test.release)
			require.NoError(t, err)
			assert.Equal(t, test.expected, next)
		})
	}
}

func TestIncrementRejectsMalformedVersions(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "not-a-version", "1.2.3.4.5.whee"} {
		_, err := semver.Increment(bad, conventional.ReleasePatch)
		require.Error(t, err, "expected %q to be rejected", bad)

		var verErr *errors.VersionError
		assert.ErrorAs(t, err, &verErr)
	}
}
