package tag

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsReleaseTag reports whether a git tag parses as semver ("v1.2.3" or "1.2.3").
func IsReleaseTag(gitTag string) bool {
	_, err := semver.StrictNewVersion(strings.TrimPrefix(gitTag, "v"))
	return err == nil
}

// ReleaseTags expands a semver git tag into the cascade of version tags a
// release publishes under: "1.2.3", "1.2", "1", "latest".
//
// Prereleases ("1.2.0-rc.1") get only their exact version tag — a release
// candidate must never capture the major/minor channels or latest.
func ReleaseTags(gitTag string) ([]string, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(gitTag, "v"))
	if err != nil {
		return nil, fmt.Errorf("tag: %q is not a semver release tag: %w", gitTag, err)
	}

	if v.Prerelease() != "" {
		return []string{v.String()}, nil
	}

	return []string{
		fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()),
		fmt.Sprintf("%d.%d", v.Major(), v.Minor()),
		fmt.Sprintf("%d", v.Major()),
		"latest",
	}, nil
}
