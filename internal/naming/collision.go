package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
)

// CollisionResolver tracks output paths claimed by input files and resolves
// duplicates by appending " - dupN" suffixes. With foldCase set, paths that
// differ only in case count as the same output. All methods are
// goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	foldCase bool
	owners   map[string]string // output key → input path that owns it
	counters map[string]int    // base output key → next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver. Pass the result of
// CaseInsensitiveDir for the output directory as foldCase.
func NewCollisionResolver(foldCase bool) *CollisionResolver {
	return &CollisionResolver{
		foldCase: foldCase,
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for input, handling collisions.
// If requestedOutput is unclaimed (or already owned by input), it is returned
// as-is. Otherwise a " - dupN" variant is generated.
func (cr *CollisionResolver) Resolve(input, requestedOutput string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	key := cr.key(requestedOutput)
	owner, exists := cr.owners[key]
	if !exists || owner == input {
		cr.owners[key] = input
		return requestedOutput
	}

	dir := filepath.Dir(requestedOutput)
	base := filepath.Base(requestedOutput)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := cr.counters[key]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		cKey := cr.key(candidate)
		cOwner, cExists := cr.owners[cKey]
		if !cExists || cOwner == input {
			cr.counters[key] = counter + 1
			cr.owners[cKey] = input
			return candidate
		}
		counter++
	}
}

func (cr *CollisionResolver) key(path string) string {
	if cr.foldCase {
		return strings.ToLower(path)
	}
	return path
}

// CaseInsensitiveDir reports whether dir lives on a filesystem that ignores
// name case. It looks up the nearest existing ancestor under its case-swapped
// name and never writes. Unknown answers are false.
func CaseInsensitiveDir(dir string) bool {
	d := filepath.Clean(dir)
	for {
		parent := filepath.Dir(d)
		if fi, err := os.Stat(d); err == nil {
			base := filepath.Base(d)
			if alt := swapCase(base); alt != base {
				ai, err := os.Stat(filepath.Join(parent, alt))
				return err == nil && os.SameFile(fi, ai)
			}
		}
		if parent == d {
			return false
		}
		d = parent
	}
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, s)
}
