package pipeline

import (
	"context"
	"fmt"

	"github.com/harborline/shipgate/src/scan"
	"github.com/harborline/shipgate/src/tag"
)

// Outcome is the terminal result of a publish attempt.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeAborted   Outcome = "aborted"
)

// Pusher pushes one fully qualified image reference to a remote registry.
type Pusher interface {
	Push(ctx context.Context, ref string) error
}

// Publish pushes the unique and floating refs for a build, gated on the
// scan verdict. A failed verdict makes this a no-op returning aborted —
// no registry call of any kind is made.
//
// On pass, the unique ref is pushed first, then the floating ref. The two
// pushes are not atomic: if the floating push fails after the unique push
// succeeded, the registry is left with a stale floating tag. That state is
// reported as an error but not rolled back.
func Publish(ctx context.Context, p Pusher, uniqueRef, floatingRef string, verdict scan.Verdict) (Outcome, error) {
	return PublishAll(ctx, p, []string{uniqueRef, floatingRef}, verdict)
}

// PublishAll pushes refs strictly in order under the same verdict gate.
// Used by release runs, which publish a cascade of version tags. A push
// failure halts the remaining refs; earlier pushes are not rolled back.
func PublishAll(ctx context.Context, p Pusher, refs []string, verdict scan.Verdict) (Outcome, error) {
	if verdict != scan.VerdictPass {
		return OutcomeAborted, nil
	}

	for i, ref := range refs {
		if err := p.Push(ctx, ref); err != nil {
			if i > 0 {
				return OutcomeAborted, fmt.Errorf("pipeline: pushing %s (%d tag(s) already published): %w", ref, i, err)
			}
			return OutcomeAborted, fmt.Errorf("pipeline: pushing %s: %w", ref, err)
		}
	}

	return OutcomePublished, nil
}

// Refs qualifies a tag pair against a registry endpoint and repository,
// yielding the two references Publish pushes.
func Refs(endpoint, repository string, tags tag.Tags) (uniqueRef, floatingRef string) {
	base := repository
	if endpoint != "" {
		base = endpoint + "/" + repository
	}
	return base + ":" + tags.Unique, base + ":" + tags.Floating
}
