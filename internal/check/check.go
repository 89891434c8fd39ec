// Package check provides self-test diagnostics (--check mode) and
// pre-pipeline validation (Preflight) of the archive and working
// directories.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zip"

	"github.com/backmassage/pngtone/internal/archive"
	"github.com/backmassage/pngtone/internal/codec"
	"github.com/backmassage/pngtone/internal/config"
	"github.com/backmassage/pngtone/internal/filter"
	"github.com/backmassage/pngtone/internal/pixel"
)

// Sentinel errors returned by Preflight.
var (
	ErrArchiveNotFound   = errors.New("archive not found")
	ErrArchiveNotFile    = errors.New("archive is not a regular file")
	ErrUnzipDirUnusable  = errors.New("unzip directory is not writable")
	ErrOutputDirUnusable = errors.New("output directory is not writable")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the --check flow: reports the runtime and worker settings,
// then round-trips a synthetic image through the zip reader, the PNG codec
// and every filter in a temporary directory. Returns false if any step
// failed.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")
	log.Info("Go %s on %s/%s, %d CPUs", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info("Workers: %d (GOMAXPROCS %d)", cfg.Workers, runtime.GOMAXPROCS(0))

	dir, err := os.MkdirTemp("", "pngtone-check-*")
	if err != nil {
		log.Error("Cannot create temp directory: %v", err)
		return false
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ok := true
	for _, step := range []struct {
		name string
		run  func(context.Context, string) error
	}{
		{"Zip expansion", checkArchive},
		{"PNG round trip", func(ctx context.Context, dir string) error { return checkCodec(ctx, dir, cfg.PNGLevel()) }},
		{"Filters", checkFilters},
	} {
		if err := step.run(context.Background(), dir); err != nil {
			log.Error("%s failed: %v", step.name, err)
			ok = false
			continue
		}
		log.Success("%s works", step.name)
	}
	return ok
}

// Preflight validates the inputs of a run before anything is processed:
// the archive must be a regular file and both working directories must be
// creatable and writable. Returns a sentinel error on failure.
func Preflight(cfg *config.Config) error {
	fi, err := os.Stat(cfg.ArchivePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, cfg.ArchivePath)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrArchiveNotFile, cfg.ArchivePath)
	}
	if err := probeWritable(cfg.UnzipDir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnzipDirUnusable, cfg.UnzipDir, err)
	}
	if cfg.DryRun || cfg.AnalyzeOnly {
		return nil
	}
	if err := probeWritable(cfg.OutputDir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputDirUnusable, cfg.OutputDir, err)
	}
	return nil
}

// --- internal helpers ---

// probeWritable creates dir if needed and writes then removes a temp file in it.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".pngtone-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// testBuffer is a small translucent gradient.
func testBuffer() *pixel.Buffer {
	buf, _ := pixel.New(16, 8)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			buf.Set(x, y, uint8(x*16), uint8(y*32), uint8(255-x*16), uint8(128+y*16))
		}
	}
	return buf
}

// checkArchive zips a file and expands it again.
func checkArchive(ctx context.Context, dir string) error {
	zipPath := filepath.Join(dir, "check.zip")
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	w, err := zw.Create("check.png")
	if err != nil {
		return err
	}
	if err := (&codec.Encoder{}).EncodeWriter(w, testBuffer()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(zipPath, b.Bytes(), 0o644); err != nil {
		return err
	}

	n, err := archive.Expand(ctx, zipPath, filepath.Join(dir, "unzipped"))
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expanded %d files, want 1", n)
	}
	return nil
}

// checkCodec writes the test buffer and reads it back.
func checkCodec(ctx context.Context, dir string, level png.CompressionLevel) error {
	want := testBuffer()
	path := filepath.Join(dir, "roundtrip.png")
	if err := (&codec.Encoder{Level: level}).Encode(ctx, want, path); err != nil {
		return err
	}
	got, err := codec.Decode(ctx, path)
	if err != nil {
		return err
	}
	if !want.Equal(got) {
		return errors.New("decoded pixels differ from encoded pixels")
	}
	return nil
}

// checkFilters applies every filter to a known pixel.
func checkFilters(ctx context.Context, _ string) error {
	src, _ := pixel.New(1, 1)
	src.Set(0, 0, 200, 100, 50, 77)

	want := map[filter.Kind][4]uint8{
		filter.Grayscale: {117, 117, 117, 77},
		filter.Sepia:     {165, 147, 114, 77},
	}
	for _, k := range filter.Kinds {
		dst, err := filter.Apply(ctx, k, src)
		if err != nil {
			return err
		}
		r, g, b, a := dst.At(0, 0)
		if got := [4]uint8{r, g, b, a}; got != want[k] {
			return fmt.Errorf("%s: got %v, want %v", k, got, want[k])
		}
	}
	return nil
}
