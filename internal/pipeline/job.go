package pipeline

import (
	"time"

	"github.com/backmassage/pngtone/internal/filter"
)

// AssetJob is one unit of work: transform Input with Filter and write
// Output. Index is the job's position in the input list and its slot in
// BatchResult.Outcomes.
type AssetJob struct {
	Index  int
	Input  string
	Output string
	Filter filter.Kind
}

// JobOutcome is the terminal state of a job.
type JobOutcome struct {
	Job   AssetJob
	Stage Stage // Stage reached when Err was set; empty on success.
	Err   error

	InputBytes  int64
	OutputBytes int64 // Zero on failure and in dry runs.
	Pixels      int64
	Elapsed     time.Duration
}

// OK reports whether the job completed every stage it was asked to run.
func (o *JobOutcome) OK() bool { return o.Err == nil }

func (o *JobOutcome) fail(stage Stage, err error) JobOutcome {
	o.Stage = stage
	o.Err = err
	return *o
}
