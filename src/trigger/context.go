// Package trigger resolves the build context a pipeline run starts from:
// the branch, the full commit hash, and the build capture timestamp.
//
// In CI the metadata comes from the host's predefined variables (GitLab CI
// and GitHub Actions are recognized). Outside CI it falls back to the local
// git repository.
package trigger

import (
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/harborline/shipgate/src/tag"
)

// Context holds the trigger metadata for one pipeline invocation.
// It is constructed once per run and never mutated afterwards.
type Context struct {
	Branch    string // raw ref name, may contain path separators
	CommitSHA string // full-length commit hash
	Timestamp string // sortable capture time, tag.TimestampLayout
	GitTag    string // non-empty when the trigger was a tag push
}

// Resolve builds a Context from CI environment variables, falling back to
// the git repository at rootDir. now is the build capture time.
func Resolve(rootDir string, now time.Time) (*Context, error) {
	c := &Context{
		Branch:    envFirst("CI_COMMIT_BRANCH", "GITHUB_REF_NAME"),
		CommitSHA: envFirst("CI_COMMIT_SHA", "GITHUB_SHA"),
		GitTag:    os.Getenv("CI_COMMIT_TAG"),
		Timestamp: tag.Timestamp(now),
	}

	// Tag pushes set GITHUB_REF_NAME to the tag, not a branch.
	if c.GitTag == "" && os.Getenv("GITHUB_REF_TYPE") == "tag" {
		c.GitTag = c.Branch
		c.Branch = ""
	}

	if c.Branch == "" || c.CommitSHA == "" {
		if err := c.fillFromGit(rootDir); err != nil && c.GitTag == "" {
			return nil, err
		}
	}

	if c.Branch == "" && c.GitTag == "" {
		return nil, fmt.Errorf("trigger: no branch or tag in environment and none detectable from git")
	}
	if c.CommitSHA == "" {
		return nil, fmt.Errorf("trigger: commit sha unavailable")
	}

	return c, nil
}

// fillFromGit reads HEAD from the repository at rootDir.
func (c *Context) fillFromGit(rootDir string) error {
	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return fmt.Errorf("trigger: opening git repo at %s: %w", rootDir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("trigger: resolving HEAD: %w", err)
	}

	if c.CommitSHA == "" {
		c.CommitSHA = head.Hash().String()
	}
	if c.Branch == "" && head.Name().IsBranch() {
		c.Branch = head.Name().Short()
	}
	return nil
}

// IsRelease reports whether this run was triggered by a semver tag push.
func (c *Context) IsRelease() bool {
	return c.GitTag != "" && tag.IsReleaseTag(c.GitTag)
}

// Ref returns the branch, or the tag for tag-triggered runs. Used for
// logging and for registry branch filters.
func (c *Context) Ref() string {
	if c.Branch != "" {
		return c.Branch
	}
	return c.GitTag
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
