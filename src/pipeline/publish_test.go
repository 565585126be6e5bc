package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/harborline/shipgate/src/scan"
	"github.com/harborline/shipgate/src/tag"
)

// recordingPusher captures every push attempt; failOn makes a specific ref fail.
type recordingPusher struct {
	pushed []string
	failOn string
}

func (r *recordingPusher) Push(_ context.Context, ref string) error {
	r.pushed = append(r.pushed, ref)
	if ref == r.failOn {
		return errors.New("connection reset by registry")
	}
	return nil
}

func TestPublishAbortsOnFailedVerdict(t *testing.T) {
	p := &recordingPusher{}

	outcome, err := Publish(context.Background(), p,
		"reg/app:dev-abc1234-20250101000000", "reg/app:dev-latest", scan.VerdictFail)
	if err != nil {
		t.Fatalf("aborting on a failed verdict is a no-op, not an error: %v", err)
	}
	if outcome != OutcomeAborted {
		t.Errorf("outcome = %s, want aborted", outcome)
	}
	if len(p.pushed) != 0 {
		t.Errorf("failed verdict must cause zero registry calls, got %v", p.pushed)
	}
}

func TestPublishPushesBothTagsOnPass(t *testing.T) {
	p := &recordingPusher{}

	outcome, err := Publish(context.Background(), p,
		"reg/app:dev-abc1234-20250101000000", "reg/app:dev-latest", scan.VerdictPass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePublished {
		t.Errorf("outcome = %s, want published", outcome)
	}
	if len(p.pushed) != 2 {
		t.Fatalf("expected exactly two pushes, got %d: %v", len(p.pushed), p.pushed)
	}
	if p.pushed[0] != "reg/app:dev-abc1234-20250101000000" {
		t.Errorf("unique tag must be pushed first, got %v", p.pushed)
	}
	if p.pushed[1] != "reg/app:dev-latest" {
		t.Errorf("floating tag must be pushed second, got %v", p.pushed)
	}
}

func TestPublishUniquePushFailureStopsFloating(t *testing.T) {
	p := &recordingPusher{failOn: "reg/app:dev-abc1234-20250101000000"}

	outcome, err := Publish(context.Background(), p,
		"reg/app:dev-abc1234-20250101000000", "reg/app:dev-latest", scan.VerdictPass)
	if err == nil {
		t.Fatal("expected push error")
	}
	if outcome != OutcomeAborted {
		t.Errorf("outcome = %s, want aborted", outcome)
	}
	if len(p.pushed) != 1 {
		t.Errorf("floating tag must not be attempted after unique failure, got %v", p.pushed)
	}
}

func TestPublishPartialStateIsReported(t *testing.T) {
	p := &recordingPusher{failOn: "reg/app:dev-latest"}

	_, err := Publish(context.Background(), p,
		"reg/app:dev-abc1234-20250101000000", "reg/app:dev-latest", scan.VerdictPass)
	if err == nil {
		t.Fatal("expected error for floating push failure")
	}
	// Both pushes were attempted; the partial state (unique published,
	// floating stale) is surfaced in the error, not rolled back.
	if len(p.pushed) != 2 {
		t.Errorf("expected both pushes attempted, got %v", p.pushed)
	}
}

func TestPublishAllReleaseCascadeOrder(t *testing.T) {
	p := &recordingPusher{}
	refs := []string{"reg/app:1.2.3", "reg/app:1.2", "reg/app:1", "reg/app:latest"}

	outcome, err := PublishAll(context.Background(), p, refs, scan.VerdictPass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePublished {
		t.Errorf("outcome = %s, want published", outcome)
	}
	for i, want := range refs {
		if p.pushed[i] != want {
			t.Errorf("push %d = %q, want %q (cascade order must hold)", i, p.pushed[i], want)
		}
	}
}

func TestPublishAllMidCascadeFailureHaltsRemaining(t *testing.T) {
	p := &recordingPusher{failOn: "reg/app:1.2"}
	refs := []string{"reg/app:1.2.3", "reg/app:1.2", "reg/app:1", "reg/app:latest"}

	outcome, err := PublishAll(context.Background(), p, refs, scan.VerdictPass)
	if err == nil {
		t.Fatal("expected push error")
	}
	if outcome != OutcomeAborted {
		t.Errorf("outcome = %s, want aborted", outcome)
	}
	if len(p.pushed) != 2 {
		t.Errorf("remaining refs must not be attempted after a failure, got %v", p.pushed)
	}
}

func TestRefs(t *testing.T) {
	tags := tag.Tags{Unique: "dev-abc1234-20250101000000", Floating: "dev-latest"}

	unique, floating := Refs("123456789012.dkr.ecr.eu-central-1.amazonaws.com", "platform/api", tags)
	if unique != "123456789012.dkr.ecr.eu-central-1.amazonaws.com/platform/api:dev-abc1234-20250101000000" {
		t.Errorf("unique ref = %q", unique)
	}
	if floating != "123456789012.dkr.ecr.eu-central-1.amazonaws.com/platform/api:dev-latest" {
		t.Errorf("floating ref = %q", floating)
	}

	unique, floating = Refs("", "platform/api", tags)
	if unique != "platform/api:dev-abc1234-20250101000000" || floating != "platform/api:dev-latest" {
		t.Errorf("local refs = %q, %q", unique, floating)
	}
}
