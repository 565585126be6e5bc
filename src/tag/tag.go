// Package tag derives the image tags a pipeline run publishes under.
// Tag derivation is pure: the same trigger metadata always produces the
// same tags, so the planner and the tests share one code path.
package tag

import (
	"fmt"
	"strings"
	"time"
)

// shortSHALen is the fixed prefix length used in unique tags.
const shortSHALen = 7

// TimestampLayout is the sortable build timestamp format (YYYYMMDDHHMMSS).
const TimestampLayout = "20060102150405"

// Tags is the pair of image tags derived for one build.
type Tags struct {
	Unique   string // {branch}-{shortSha}-{timestamp}, one per build
	Floating string // {branch}-latest, repointed on every published build
}

// Derive computes the unique and floating tags for a build.
//
// branch may contain path separators ("feature/login"); they are replaced
// with hyphens because the tag becomes part of a registry path segment.
// commitSHA must be at least 7 hex characters; only its 7-char prefix is
// used. timestamp is a caller-formatted TimestampLayout string.
func Derive(branch, commitSHA, timestamp string) (Tags, error) {
	if strings.TrimSpace(branch) == "" {
		return Tags{}, fmt.Errorf("tag: branch is empty")
	}
	if err := validateSHA(commitSHA); err != nil {
		return Tags{}, err
	}
	if timestamp == "" {
		return Tags{}, fmt.Errorf("tag: timestamp is empty")
	}

	sanitized := Sanitize(branch)
	return Tags{
		Unique:   fmt.Sprintf("%s-%s-%s", sanitized, ShortSHA(commitSHA), timestamp),
		Floating: fmt.Sprintf("%s-latest", sanitized),
	}, nil
}

// Sanitize replaces characters not allowed in Docker tags.
func Sanitize(branch string) string {
	r := strings.NewReplacer(
		"/", "-",
		" ", "-",
	)
	return r.Replace(branch)
}

// ShortSHA returns the fixed 7-character prefix of a commit hash.
func ShortSHA(commitSHA string) string {
	if len(commitSHA) <= shortSHALen {
		return commitSHA
	}
	return commitSHA[:shortSHALen]
}

// Timestamp formats a build capture time in the sortable tag layout.
// Always UTC so timestamps stay monotonic across runner timezones.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func validateSHA(sha string) error {
	if len(sha) < shortSHALen {
		return fmt.Errorf("tag: commit sha %q shorter than %d characters", sha, shortSHALen)
	}
	for _, c := range sha {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return fmt.Errorf("tag: commit sha %q contains non-hex character %q", sha, c)
		}
	}
	return nil
}
