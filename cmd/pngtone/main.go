// Command pngtone is the CLI entrypoint for the pngtone batch PNG filter.
//
// It loads environment and flags, validates configuration and paths, and
// either runs self-test diagnostics (--check), the asset analyzer
// (--analyze), or the expand/filter/write pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/pngtone/internal/check"
	"github.com/backmassage/pngtone/internal/config"
	"github.com/backmassage/pngtone/internal/display"
	"github.com/backmassage/pngtone/internal/logging"
	"github.com/backmassage/pngtone/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], logging.Console(os.Stdout), logging.Console(os.Stderr)))
}

// run executes one CLI invocation and returns the process exit code: 0 on
// success (including partial success outside strict mode), 1 otherwise.
func run(args []string, stdout, stderr io.Writer) int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	config.Version = version
	cfg := config.DefaultConfig()
	if err := config.LoadEnv(&cfg, config.DotenvFiles...); err != nil {
		fmt.Fprintf(stderr, "pngtone: %v\n", err)
		return 1
	}
	if err := config.ParseFlags(&cfg, args, stdout, stderr); err != nil {
		if errors.Is(err, config.ErrHelp) || errors.Is(err, config.ErrVersion) {
			return 0
		}
		fmt.Fprintf(stderr, "pngtone: %v\n", err)
		return 1
	}

	// An unknown filter fails here, before any directory is created.
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "pngtone: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pngtone: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available; all output goes through log from here on.
	display.PrintBanner(stdout)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	// Output must not be inside the unzip directory, or expanded inputs
	// and written outputs would mix.
	unzipAbs, err := absPath(cfg.UnzipDir)
	if err != nil {
		log.Error("Cannot resolve unzip path: %s", cfg.UnzipDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(unzipAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.UnzipDir)
		return 1
	}

	log.Info("=== pngtone v%s (%s) ===", version, commit)
	log.Info("Archive: %s", cfg.ArchivePath)
	log.Info("Unzip:   %s", cfg.UnzipDir)
	log.Info("Out:     %s", cfg.OutputDir)
	if cfg.DryRun {
		log.Warn("DRY RUN - no files will be written")
	}

	if err := check.Preflight(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling. Cancel the context on SIGINT/SIGTERM so
	// jobs not yet started fail fast; the batch still joins before exit.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing running images…")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.AnalyzeOnly {
		if err := pipeline.Analyze(ctx, &cfg, log); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	// Phase 4: Run pipeline (expand → discover → probe/decode/transform/encode).
	res, err := pipeline.Run(ctx, &cfg, log)
	if err != nil {
		log.Error("%s: %v", pipeline.Classify(err), err)
		return 1
	}

	for _, f := range res.Failures() {
		log.Error("%s: %s: %v", pipeline.Classify(f.Err), filepath.Base(f.Input), f.Err)
	}
	if cfg.StrictMode {
		if err := res.Err(); err != nil {
			log.Error("Strict mode: %d of %d images failed", res.Failed(), res.Total())
			return 1
		}
	}
	return 0
}

// absPath returns the absolute path with symlinks resolved when the path
// exists, for comparing the unzip and output hierarchies. Paths that do not
// exist yet are compared in cleaned absolute form.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
