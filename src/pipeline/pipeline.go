// Package pipeline sequences a publishing run as an explicit finite list of
// named stages with a single policy: the first failing stage halts the run.
// There is no DAG, no retries, and no re-entry — one trigger event is
// processed to completion (Published or Aborted) and discarded.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// State tracks where a run is in its lifecycle.
type State string

const (
	StateTriggered   State = "triggered"
	StateTagsDerived State = "tags_derived"
	StateBuilt       State = "built"
	StateScanned     State = "scanned"
	StatePublished   State = "published"
	StateAborted     State = "aborted"
)

// Stage is one named step of the run.
type Stage struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// StageResult records the outcome of one executed stage.
type StageResult struct {
	Name     string
	Status   string // "success" or "failed"
	Detail   string
	Duration time.Duration
}

// Sequence executes stages strictly in order, halting at the first error.
// All executed stages are reported, including the failing one.
func Sequence(ctx context.Context, stages []Stage) ([]StageResult, error) {
	results := make([]StageResult, 0, len(stages))

	for _, stage := range stages {
		start := time.Now()
		detail, err := stage.Run(ctx)
		r := StageResult{
			Name:     stage.Name,
			Status:   "success",
			Detail:   detail,
			Duration: time.Since(start),
		}
		if err != nil {
			r.Status = "failed"
			if r.Detail == "" {
				r.Detail = err.Error()
			}
			results = append(results, r)
			log.Error().Str("stage", stage.Name).Err(err).Msg("stage failed, halting run")
			return results, err
		}
		log.Debug().Str("stage", stage.Name).Dur("elapsed", r.Duration).Msg("stage complete")
		results = append(results, r)
	}

	return results, nil
}
