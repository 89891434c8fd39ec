package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/backmassage/pngtone/internal/archive"
	"github.com/backmassage/pngtone/internal/config"
	"github.com/backmassage/pngtone/internal/display"
	"github.com/backmassage/pngtone/internal/logging"
	"github.com/backmassage/pngtone/internal/probe"
	"github.com/backmassage/pngtone/internal/term"
)

// assetRow holds the probed per-file data for the analysis table.
type assetRow struct {
	Name  string
	Info  *probe.Info
	Large bool // Over cfg.MaxPixels; would fail a real run.
}

// Analyze expands the archive, probes every discovered PNG, and prints a
// table of dimensions, color type, file size and decoded memory with
// size-outlier highlighting.
// Nothing is written to the output directory.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	_, err := analyze(ctx, cfg, log, os.Stdout, term.IsTerminal(os.Stdout))
	return err
}

func analyze(ctx context.Context, cfg *config.Config, log *logging.Logger, w io.Writer, isTTY bool) ([]assetRow, error) {
	if _, err := archive.Expand(ctx, cfg.ArchivePath, cfg.UnzipDir); err != nil {
		return nil, err
	}
	files, err := Discover(cfg.UnzipDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("No PNG files found in %s", cfg.UnzipDir)
		return nil, nil
	}

	total := len(files)
	log.Info("Analyzing %d files in %s", total, cfg.UnzipDir)

	var rows []assetRow
	var skipped int
	var megapixels []float64

	for i, path := range files {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(w)
			}
			log.Warn("Interrupted")
			return rows, ctx.Err()
		}

		printProgress(w, isTTY, i+1, total, skipped, filepath.Base(path))

		info, err := probe.Probe(ctx, path)
		if err != nil {
			skipped++
			if isTTY {
				clearProgress(w)
			}
			log.Warn("Skip (probe failed): %s: %v", filepath.Base(path), err)
			continue
		}

		rows = append(rows, assetRow{
			Name:  filepath.Base(path),
			Info:  info,
			Large: info.Pixels() > int64(cfg.MaxPixels),
		})
		megapixels = append(megapixels, float64(info.Pixels())/1e6)
	}

	if isTTY {
		clearProgress(w)
	}

	if len(rows) == 0 {
		log.Warn("No files could be probed")
		return nil, nil
	}

	stats := computeStats(megapixels)
	printAnalysisTable(w, rows, stats)
	printAnalysisSummary(log, rows, stats)
	return rows, nil
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierHi float64 // Q3 + 1.5*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

// computeStats needs at least four samples; small images are never the
// bottleneck, so only the upper fences are kept.
func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierHi: q3 + 1.5*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v > b.extremeHi {
		return "extreme"
	}
	if v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printAnalysisTable(w io.Writer, rows []assetRow, stats iqrBounds) {
	nameW := len("File")
	resW := len("Resolution")
	colorW := len("Color")
	sizeW := len("Size")
	memW := len("Memory")

	for _, r := range rows {
		nameW = max(nameW, utf8.RuneCountInString(r.Name))
		resW = max(resW, len(r.Info.Resolution()))
		colorW = max(colorW, len(colorLabel(r.Info)))
		sizeW = max(sizeW, len(display.FormatBytes(r.Info.Size)))
		memW = max(memW, len(display.FormatBytes(r.Info.DecodedBytes())))
	}
	nameW = min(nameW, 50)

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s",
		nameW, "File",
		resW, "Resolution",
		colorW, "Color",
		sizeW, "Size",
		memW, "Memory",
	)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+term.Dim+strings.Repeat("─", len(header)-2)+term.NC)

	for _, r := range rows {
		name := truncateName(r.Name, nameW)

		class := stats.classify(float64(r.Info.Pixels()) / 1e6)
		if r.Large {
			class = "extreme"
		}

		// Pad the plain text first, then wrap in ANSI color, so escape
		// bytes are not counted as visible width.
		fmt.Fprintf(w, "  %s  %s  %-*s  %-*s  %-*s  %s\n",
			padRunes(name, nameW),
			colorPad(r.Info.Resolution(), resW, class),
			colorW, colorLabel(r.Info),
			sizeW, display.FormatBytes(r.Info.Size),
			memW, display.FormatBytes(r.Info.DecodedBytes()),
			formatFlag(class, r.Large),
		)
	}
	fmt.Fprintln(w)
}

func printAnalysisSummary(log *logging.Logger, rows []assetRow, stats iqrBounds) {
	var pixels, size int64
	var outliers, large, alpha int
	for _, r := range rows {
		pixels += r.Info.Pixels()
		size += r.Info.Size
		if r.Info.ColorType.HasAlpha() {
			alpha++
		}
		if r.Large {
			large++
		} else if stats.classify(float64(r.Info.Pixels())/1e6) != "" {
			outliers++
		}
	}

	log.Info("Analyzed %d files: %s pixels, %s on disk", len(rows), display.FormatCount(pixels), display.FormatBytes(size))
	if alpha > 0 {
		log.Info("  %d with an alpha channel (kept unchanged by the filter)", alpha)
	}
	if stats.valid {
		log.Info("  Megapixel IQR: %.2f – %.2f (outlier > %.2f)", stats.q1, stats.q3, stats.outlierHi)
	}
	if outliers > 0 {
		log.Warn("  %d unusually large image(s) flagged [*]", outliers)
	}
	if large > 0 {
		log.Error("  %d image(s) over the pixel limit flagged [!]", large)
	}
	if outliers == 0 && large == 0 {
		log.Success("  No outliers detected")
	}
}

// colorLabel renders color type and depth, e.g. "rgba/8" or "gray/16 interlaced".
func colorLabel(info *probe.Info) string {
	s := fmt.Sprintf("%s/%d", info.ColorType, info.BitDepth)
	if info.IsInterlaced() {
		s += " interlaced"
	}
	return s
}

func formatFlag(class string, large bool) string {
	switch {
	case large:
		return term.Red + "[!] over limit" + term.NC
	case class == "extreme":
		return term.Red + "[!]" + term.NC
	case class == "outlier":
		return term.Yellow + "[*]" + term.NC
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then wraps in ANSI color.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Red + padded + term.NC
	case "outlier":
		return term.Yellow + padded + term.NC
	default:
		return padded
	}
}

// printProgress shows a live probe counter. On a TTY it writes an
// inline \r-overwritten line; otherwise it is a no-op (the skip warnings
// already provide enough breadcrumbs in piped/logged output).
func printProgress(w io.Writer, isTTY bool, current, total, skipped int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}

	status += truncateName(name, 40)

	// Pad to 80 columns to overwrite previous longer lines, then \r.
	if n := utf8.RuneCountInString(status); n < 80 {
		status += strings.Repeat(" ", 80-n)
	}
	fmt.Fprintf(w, "\r%s", status)
}

// truncateName shortens s to at most width runes, marking the cut with an
// ellipsis. It never splits a multi-byte character.
func truncateName(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

// padRunes left-aligns s in width columns, counting runes rather than bytes.
func padRunes(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// clearProgress erases the inline progress line on a TTY.
func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
