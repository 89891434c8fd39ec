package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/backmassage/pngtone/internal/filter"
)

// Failure pairs an input path with the error that stopped it.
type Failure struct {
	Input string
	Err   error
}

// BatchResult collects every job outcome of one run. Outcomes is indexed
// by AssetJob.Index, so its order matches the input list regardless of
// completion order.
type BatchResult struct {
	RunID    string
	Filter   filter.Kind
	DryRun   bool
	Outcomes []JobOutcome
	Elapsed  time.Duration
}

func newBatchResult(kind filter.Kind, dryRun bool, n int) *BatchResult {
	return &BatchResult{
		RunID:    uuid.NewString(),
		Filter:   kind,
		DryRun:   dryRun,
		Outcomes: make([]JobOutcome, n),
	}
}

// Total is the number of jobs in the batch.
func (r *BatchResult) Total() int { return len(r.Outcomes) }

// Succeeded counts jobs that completed without error.
func (r *BatchResult) Succeeded() int {
	return lo.CountBy(r.Outcomes, func(o JobOutcome) bool { return o.OK() })
}

// Failed counts jobs that ended in error.
func (r *BatchResult) Failed() int { return r.Total() - r.Succeeded() }

// Written lists output paths that now exist, in input order. Empty for dry runs.
func (r *BatchResult) Written() []string {
	if r.DryRun {
		return nil
	}
	return lo.FilterMap(r.Outcomes, func(o JobOutcome, _ int) (string, bool) {
		return o.Job.Output, o.OK()
	})
}

// Failures lists failed inputs with their errors, in input order.
func (r *BatchResult) Failures() []Failure {
	return lo.FilterMap(r.Outcomes, func(o JobOutcome, _ int) (Failure, bool) {
		return Failure{Input: o.Job.Input, Err: o.Err}, !o.OK()
	})
}

// InputBytes sums the file sizes of inputs that were processed successfully.
func (r *BatchResult) InputBytes() int64 {
	return lo.SumBy(r.Outcomes, func(o JobOutcome) int64 {
		if !o.OK() {
			return 0
		}
		return o.InputBytes
	})
}

// OutputBytes sums the sizes of written outputs.
func (r *BatchResult) OutputBytes() int64 {
	return lo.SumBy(r.Outcomes, func(o JobOutcome) int64 { return o.OutputBytes })
}

// Pixels sums the pixels transformed by successful jobs.
func (r *BatchResult) Pixels() int64 {
	return lo.SumBy(r.Outcomes, func(o JobOutcome) int64 {
		if !o.OK() {
			return 0
		}
		return o.Pixels
	})
}

// ByClass counts failures per Classify name.
func (r *BatchResult) ByClass() map[string]int {
	return lo.CountValuesBy(r.Failures(), func(f Failure) string { return Classify(f.Err) })
}

// Err joins every job failure, or returns nil when all jobs succeeded.
// Used by strict mode to turn partial success into a failed run.
func (r *BatchResult) Err() error {
	fails := r.Failures()
	if len(fails) == 0 {
		return nil
	}
	errs := lo.Map(fails, func(f Failure, _ int) error { return f.Err })
	return fmt.Errorf("%d of %d assets failed: %w", len(fails), r.Total(), errors.Join(errs...))
}
