// Package pipeline orchestrates archive expansion, asset discovery,
// concurrent per-asset processing, and batch summary reporting.
//
// Each asset runs probe → decode → transform → encode as one job. Jobs fan
// out on a bounded errgroup and [Process] returns only after every job has
// reached a terminal state. A failing job never stops the others; its
// error is recorded in the job's own outcome slot and reported in the
// [BatchResult].
//
// Files:
//   - runner.go: Run, Process, per-job execution and batch logging
//   - discover.go: Discover (immediate .png entries of a directory)
//   - job.go: AssetJob and JobOutcome
//   - stats.go: BatchResult aggregation
//   - errors.go: ErrDiscovery, Stage, Classify
//   - analyze.go: --analyze asset table
package pipeline
