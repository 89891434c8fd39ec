package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into transform, scheduling, behavior, display, and utility.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/backmassage/pngtone/internal/filter"
)

// Version is shown in --version and help; override at build time with
// -ldflags "-X github.com/backmassage/pngtone/internal/config.Version=...".
var Version = "1.0.0-dev"

// ErrHelp and ErrVersion are returned by ParseFlags when the user asked for
// help or version output. The text has already been printed; the caller
// should exit 0.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// ParseFlags parses args (without the program name) into cfg. Values already
// in cfg, from DefaultConfig and LoadEnv, act as defaults. Usage goes to
// stderr and the version line to stdout. On error it returns non-nil (e.g.
// unknown flag, missing positional args).
func ParseFlags(cfg *Config, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("pngtone", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() { printUsage(stderr) }

	var negated negatedFlags

	defineTransformFlags(fs, cfg)
	defineSchedulingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(stderr)
		return ErrHelp
	}
	if negated.showVersion {
		fmt.Fprintln(stdout, "pngtone v"+Version)
		return ErrVersion
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override a default (forceColor, noColor) or end the run (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineTransformFlags registers -F/--filter and --compression.
func defineTransformFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.VarP(&filterValue{&cfg.Filter}, "filter", "F", "Color filter: grayscale | sepia")
	fs.Var(&compressionValue{&cfg.Compression}, "compression", "PNG compression: default | fast | best | none")
}

// defineSchedulingFlags registers -j/--jobs, --timeout, --max-pixels.
func defineSchedulingFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Workers, "jobs", "j", cfg.Workers, "Concurrent image jobs")
	fs.DurationVar(&cfg.JobTimeout, "timeout", cfg.JobTimeout, "Per-image time limit (0 disables)")
	fs.IntVar(&cfg.MaxPixels, "max-pixels", cfg.MaxPixels, "Reject images larger than this many pixels")
}

// defineBehaviorFlags registers unzip-dir, dry-run, strict, analyze, check.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.UnzipDir, "unzip-dir", "u", cfg.UnzipDir, "Directory the archive is expanded into")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Decode and transform only; write nothing")
	fs.BoolVar(&cfg.StrictMode, "strict", cfg.StrictMode, "Exit non-zero if any image fails")
	fs.BoolVarP(&cfg.AnalyzeOnly, "analyze", "a", cfg.AnalyzeOnly, "List archive images and exit")
	fs.BoolVarP(&cfg.CheckOnly, "check", "c", cfg.CheckOnly, "Run self-test diagnostics and exit")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log, --log-json.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to file")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Write the log file as JSON lines")
}

// defineUtilityFlags registers --version and --help.
func defineUtilityFlags(fs *pflag.FlagSet, n *negatedFlags) {
	fs.BoolVarP(&n.showVersion, "version", "V", false, "Print version and exit")
	fs.BoolVarP(&n.showHelp, "help", "h", false, "Show this help and exit")
}

// applyNegatedFlags copies override flag values into cfg. --no-color wins over --color.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets ArchivePath and OutputDir from the two positional args when not in CheckOnly mode.
func parsePositionalArgs(fs *pflag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("need exactly archive and output_dir (got %d arguments)", len(args))
	}
	cfg.ArchivePath = args[0]
	cfg.OutputDir = NormalizeDirArg(args[1])
	cfg.UnzipDir = NormalizeDirArg(cfg.UnzipDir)
	return nil
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "pngtone v" + Version + " - batch PNG color filter"},
		{"", ""},
		{"  pngtone [OPTIONS] <archive.zip> <output_dir>", ""},
		{"", ""},
		{"Transform", ""},
		{"  -F, --filter <name>", "grayscale | sepia (default: grayscale)"},
		{"  --compression <level>", "default | fast | best | none (default: default)"},
		{"", ""},
		{"Scheduling", ""},
		{"  -j, --jobs <n>", "Concurrent image jobs (default: CPU count)"},
		{"  --timeout <duration>", "Per-image time limit (default: 2m, 0 disables)"},
		{"  --max-pixels <n>", "Reject larger images (default: 100000000)"},
		{"", ""},
		{"Output & behavior", ""},
		{"  -u, --unzip-dir <path>", "Expansion directory (default: ./unzipped next to archive)"},
		{"  -d, --dry-run", "Decode and transform only; write nothing"},
		{"  --strict", "Exit non-zero if any image fails"},
		{"  -a, --analyze", "List archive images and exit"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  --log-json", "Write the log file as JSON lines"},
		{"  -c, --check", "Self-test diagnostics (codec, filters, workers)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"Environment", ""},
		{"  PNGTONE_FILTER, PNGTONE_JOBS, PNGTONE_UNZIP_DIR,", ""},
		{"  PNGTONE_TIMEOUT, PNGTONE_STRICT, PNGTONE_LOG, NO_COLOR", ""},
		{"  (.env and .env.local are read if present; flags win)", ""},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// pflag.Value adapters so we can use enum types (filter.Kind, Compression) with fs.Var.

// filterValue stores the normalized token without rejecting it, so an
// unknown filter surfaces from Validate as filter.ErrUnsupportedFilter.
type filterValue struct{ p *filter.Kind }

func (f *filterValue) String() string { return string(*f.p) }
func (f *filterValue) Type() string   { return "filter" }
func (f *filterValue) Set(s string) error {
	*f.p = filter.Normalize(s)
	return nil
}

type compressionValue struct{ p *Compression }

func (c *compressionValue) String() string { return string(*c.p) }
func (c *compressionValue) Type() string   { return "level" }
func (c *compressionValue) Set(s string) error {
	switch Compression(strings.ToLower(s)) {
	case CompressionDefault:
		*c.p = CompressionDefault
	case CompressionFast:
		*c.p = CompressionFast
	case CompressionBest:
		*c.p = CompressionBest
	case CompressionNone:
		*c.p = CompressionNone
	default:
		return fmt.Errorf("invalid compression %q (use 'default', 'fast', 'best' or 'none')", s)
	}
	return nil
}
