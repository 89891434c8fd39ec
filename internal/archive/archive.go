// Package archive expands zip archives onto the local filesystem.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrExpansion wraps every failure to open or extract an archive. It is
// fatal to a run: without the expanded directory no assets can be found.
var ErrExpansion = errors.New("archive expansion failed")

var errUnsafePath = errors.New("entry escapes destination")

// Expand extracts every entry of the zip at archivePath into destDir and
// returns the number of files written. destDir and any missing parents are
// created first, so Expand is idempotent; existing files are overwritten.
// Entries whose names would land outside destDir are rejected.
func Expand(ctx context.Context, archivePath, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrExpansion, archivePath, err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrExpansion, archivePath, err)
	}
	defer func() { _ = zr.Close() }()

	written := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w: %s: %w", ErrExpansion, archivePath, err)
		}
		target, err := entryPath(destDir, f.Name)
		if err != nil {
			return written, fmt.Errorf("%w: %s: %q: %w", ErrExpansion, archivePath, f.Name, err)
		}
		if target == destDir {
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("%w: %s: %w", ErrExpansion, archivePath, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return written, fmt.Errorf("%w: %s: %q: %w", ErrExpansion, archivePath, f.Name, err)
		}
		written++
	}
	return written, nil
}

// entryPath resolves an archive entry name under destDir. Names are cleaned
// the same way regardless of the separator the archiver used. A name that
// cleans to "." (such as "./") resolves to destDir itself.
func entryPath(destDir, name string) (string, error) {
	clean := strings.ReplaceAll(name, "\\", "/")
	clean = strings.TrimLeft(clean, "/")
	clean = filepath.Clean(filepath.FromSlash(clean))
	if clean == "." {
		return destDir, nil
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errUnsafePath
	}
	return filepath.Join(destDir, clean), nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
