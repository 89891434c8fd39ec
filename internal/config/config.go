// Package config holds runtime configuration: defaults, environment and CLI
// flag loading, and validation. Working directories are always explicit
// fields so the pipeline can run against temporary directories in tests.
package config

import (
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/backmassage/pngtone/internal/filter"
)

// --- Enum types for validated string fields ---

// Compression selects the PNG zlib level used when writing outputs.
type Compression string

const (
	CompressionDefault Compression = "default" // zlib default (default).
	CompressionFast    Compression = "fast"    // Fastest, larger files.
	CompressionBest    Compression = "best"    // Smallest files, slowest.
	CompressionNone    Compression = "none"    // Stored, no compression.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [LoadEnv], then [ParseFlags], and is passed by pointer to the
// packages that need it.
type Config struct {
	// Paths. ArchivePath and OutputDir come from positional args.
	ArchivePath string
	UnzipDir    string // Default: "unzipped" next to the archive.
	OutputDir   string

	// Transform.
	Filter      filter.Kind // Default: grayscale.
	Compression Compression // Default: "default".

	// Scheduling and resource limits.
	Workers    int           // Default: GOMAXPROCS.
	JobTimeout time.Duration // Default: 2m. Zero disables.
	MaxPixels  int           // Default: 100M. Larger images fail decode.

	// Behavior flags.
	DryRun      bool
	StrictMode  bool // Exit non-zero if any asset fails.
	AnalyzeOnly bool // Print an asset table and exit.
	CheckOnly   bool // Run --check diagnostics and exit.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	LogJSON   bool      // Write the log file as JSON lines.
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Filter:      filter.Grayscale,
		Compression: CompressionDefault,
		Workers:     runtime.GOMAXPROCS(0),
		JobTimeout:  2 * time.Minute,
		MaxPixels:   100_000_000,
		ColorMode:   ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// DefaultUnzipDir is the working directory used when none is configured:
// a sibling "unzipped" directory next to the archive.
func DefaultUnzipDir(archivePath string) string {
	return filepath.Join(filepath.Dir(archivePath), "unzipped")
}

// Validate checks enum and numeric fields. An unknown filter fails with an
// error wrapping filter.ErrUnsupportedFilter. Outside CheckOnly mode the
// archive and output paths are required, and an empty UnzipDir is derived
// from the archive path.
func (c *Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return err
	}

	switch c.Compression {
	case CompressionDefault, CompressionFast, CompressionBest, CompressionNone:
		// valid
	default:
		return errors.New("invalid compression (use 'default', 'fast', 'best' or 'none')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.Workers < 1 {
		return fmt.Errorf("jobs must be at least 1 (got %d)", c.Workers)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("timeout must not be negative (got %s)", c.JobTimeout)
	}
	if c.MaxPixels < 1 {
		return fmt.Errorf("max pixels must be at least 1 (got %d)", c.MaxPixels)
	}

	if c.CheckOnly {
		return nil
	}
	if c.ArchivePath == "" || c.OutputDir == "" {
		return errors.New("need exactly archive and output_dir")
	}
	if c.UnzipDir == "" {
		c.UnzipDir = DefaultUnzipDir(c.ArchivePath)
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is neither the unzip
// directory nor inside it, so expanded inputs and written outputs never mix.
// Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(unzipAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == unzipAbs || strings.HasPrefix(outputAbs+sep, unzipAbs+sep) {
		return errors.New("output directory must not be inside the unzip directory")
	}
	return nil
}

// PNGLevel maps Compression to the image/png level.
func (c *Config) PNGLevel() png.CompressionLevel {
	switch c.Compression {
	case CompressionFast:
		return png.BestSpeed
	case CompressionBest:
		return png.BestCompression
	case CompressionNone:
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}
