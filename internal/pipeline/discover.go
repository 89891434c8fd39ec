package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/backmassage/pngtone/internal/codec"
)

// Discover lists the PNG assets directly inside dir: regular files whose
// extension is .png in any case. Subdirectories are not searched. Paths are
// returned in directory enumeration order (lexical, from os.ReadDir).
// Leftover encoder temp files (name.png.tmp.*) never match.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDiscovery, dir, err)
	}
	assets := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return e.Type().IsRegular() && codec.IsSupported(e.Name())
	})
	return lo.Map(assets, func(e os.DirEntry, _ int) string {
		return filepath.Join(dir, e.Name())
	}), nil
}
