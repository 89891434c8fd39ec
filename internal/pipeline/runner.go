package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/pngtone/internal/archive"
	"github.com/backmassage/pngtone/internal/codec"
	"github.com/backmassage/pngtone/internal/config"
	"github.com/backmassage/pngtone/internal/display"
	"github.com/backmassage/pngtone/internal/filter"
	"github.com/backmassage/pngtone/internal/logging"
	"github.com/backmassage/pngtone/internal/naming"
	"github.com/backmassage/pngtone/internal/probe"
)

var errTooLarge = errors.New("image exceeds pixel limit")

// Run is the top-level batch entry point: validate the filter, expand the
// archive, discover assets, process them, and log a summary. An unknown
// filter fails before anything is created on disk. Expansion and discovery
// failures are fatal; per-asset failures are recorded in the result.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (*BatchResult, error) {
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}

	n, err := archive.Expand(ctx, cfg.ArchivePath, cfg.UnzipDir)
	if err != nil {
		return nil, err
	}
	log.Debug(cfg.Verbose, "Expanded %d files into %s", n, cfg.UnzipDir)

	paths, err := Discover(cfg.UnzipDir)
	if err != nil {
		return nil, err
	}

	logBatchHeader(cfg, log, len(paths))
	if len(paths) == 0 {
		log.Warn("No PNG files found in %s", cfg.UnzipDir)
	}

	res, err := Process(ctx, cfg, log, paths)
	if err != nil {
		return nil, err
	}
	logSummary(log, res)
	return res, nil
}

// Process runs one job per path and blocks until every job is terminal.
// At most cfg.Workers jobs run at once. Outputs go to
// <cfg.OutputDir>/<filter subdir>/<basename>; the subdirectory is created
// before any job starts unless this is a dry run. Process itself fails only
// for an unknown filter.
func Process(ctx context.Context, cfg *config.Config, log *logging.Logger, paths []string) (*BatchResult, error) {
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	res := newBatchResult(cfg.Filter, cfg.DryRun, len(paths))
	log = log.With("run", res.RunID)

	// A missing output directory is not fatal to the batch: each job
	// reports it as its own encode failure.
	var dirErr error
	outDir := naming.OutputDir(cfg.OutputDir, cfg.Filter)
	if !cfg.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			dirErr = err
			log.Error("Cannot create output directory %s: %v", outDir, err)
		}
	}

	foldCase := naming.CaseInsensitiveDir(outDir)
	log.Debug(cfg.Verbose, "Output names case-insensitive: %v", foldCase)
	jobs := planJobs(cfg.OutputDir, cfg.Filter, paths, foldCase)

	r := &jobRunner{
		cfg:    cfg,
		log:    log,
		enc:    &codec.Encoder{Level: cfg.PNGLevel()},
		dirErr: dirErr,
		total:  len(jobs),
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			res.Outcomes[job.Index] = r.run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	res.Elapsed = time.Since(start)
	return res, nil
}

// planJobs builds one job per path, resolving duplicate output names.
func planJobs(root string, kind filter.Kind, paths []string, foldCase bool) []AssetJob {
	resolver := naming.NewCollisionResolver(foldCase)
	jobs := make([]AssetJob, len(paths))
	for i, p := range paths {
		jobs[i] = AssetJob{
			Index:  i,
			Input:  p,
			Output: resolver.Resolve(p, naming.OutputPath(root, kind, p)),
			Filter: kind,
		}
	}
	return jobs
}

// jobRunner holds what every job of one batch shares.
type jobRunner struct {
	cfg    *config.Config
	log    *logging.Logger
	enc    *codec.Encoder
	dirErr error
	total  int
	done   atomic.Int64
}

func (r *jobRunner) run(ctx context.Context, job AssetJob) JobOutcome {
	start := time.Now()
	out := r.execute(ctx, job)
	out.Elapsed = time.Since(start)

	n := r.done.Add(1)
	log := r.log.With("asset", filepath.Base(job.Input))
	switch {
	case !out.OK():
		log.Error("[%d/%d] %s failed (%s): %v", n, r.total, filepath.Base(job.Input), out.Stage, out.Err)
	case r.cfg.DryRun:
		log.Success("[%d/%d] [DRY] Would write %s (%s px)", n, r.total, job.Output, display.FormatCount(out.Pixels))
	default:
		log.Success("[%d/%d] %s -> %s (%s, %s)", n, r.total, filepath.Base(job.Input), job.Output,
			display.FormatBytes(out.OutputBytes), display.FormatElapsed(out.Elapsed))
	}
	return out
}

// execute runs probe → decode → transform → encode for one job. The decoded
// and transformed buffers are released when it returns.
func (r *jobRunner) execute(ctx context.Context, job AssetJob) JobOutcome {
	out := JobOutcome{Job: job}
	if r.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.JobTimeout)
		defer cancel()
	}

	info, err := probe.Probe(ctx, job.Input)
	if err != nil {
		return out.fail(StageProbe, err)
	}
	out.InputBytes = info.Size
	if info.Pixels() > int64(r.cfg.MaxPixels) {
		return out.fail(StageProbe, fmt.Errorf("%w: %s: %w (%s > %s)", codec.ErrDecode, job.Input, errTooLarge,
			display.FormatCount(info.Pixels()), display.FormatCount(int64(r.cfg.MaxPixels))))
	}
	if info.IsHighBitDepth() {
		r.log.Debug(r.cfg.Verbose, "%s is 16-bit; output will be 8-bit", filepath.Base(job.Input))
	}

	src, err := codec.Decode(ctx, job.Input)
	if err != nil {
		return out.fail(StageDecode, err)
	}

	dst, err := filter.Apply(ctx, job.Filter, src)
	if err != nil {
		return out.fail(StageTransform, fmt.Errorf("transform %s: %w", job.Input, err))
	}
	out.Pixels = int64(dst.Pixels())

	if r.cfg.DryRun {
		return out
	}
	if r.dirErr != nil {
		return out.fail(StageEncode, fmt.Errorf("%w: %s: %w", codec.ErrEncode, job.Output, r.dirErr))
	}
	if err := r.enc.Encode(ctx, dst, job.Output); err != nil {
		return out.fail(StageEncode, err)
	}
	if fi, err := os.Stat(job.Output); err == nil {
		out.OutputBytes = fi.Size()
	}
	return out
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, total int) {
	log.Info("Found %d PNG files", total)
	log.Info("Filter: %s -> %s", cfg.Filter, naming.OutputDir(cfg.OutputDir, cfg.Filter))
	log.Info("Workers: %d, compression: %s", cfg.Workers, cfg.Compression)
	if cfg.JobTimeout > 0 {
		log.Info("Per-image timeout: %s", cfg.JobTimeout)
	}
	if cfg.DryRun {
		log.Info("Dry run: decode and transform only, nothing is written")
	}
	if cfg.StrictMode {
		log.Info("Strict mode: any failed image fails the run")
	}
}

func logSummary(log *logging.Logger, res *BatchResult) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d failed of %d (run %s)", res.Succeeded(), res.Failed(), res.Total(), res.RunID)
	log.Info("Summary report:")
	log.Info("  Pixels transformed: %s", display.FormatCount(res.Pixels()))
	log.Info("  Elapsed: %s", display.FormatElapsed(res.Elapsed))

	byClass := res.ByClass()
	classes := lo.Keys(byClass)
	sort.Strings(classes)
	for _, class := range classes {
		log.Warn("  %s: %d", class, byClass[class])
	}

	if res.DryRun {
		log.Info("  Output size: n/a (dry run)")
		return
	}
	in, out := res.InputBytes(), res.OutputBytes()
	log.Info("  Output size: %s (input %s, %s)",
		display.FormatBytes(out), display.FormatBytes(in), display.FormatBytesWithSign(out-in))
}
