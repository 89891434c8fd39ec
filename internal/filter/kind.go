package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFilter is returned for any filter token outside the closed
// set of kinds. Callers must treat it as fatal before any job starts.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Kind selects the color transform.
type Kind string

const (
	Grayscale Kind = "grayscale" // Flat (R+G+B)/3 average.
	Sepia     Kind = "sepia"     // Classic sepia matrix.
)

// Kinds lists every supported filter in display order.
var Kinds = []Kind{Grayscale, Sepia}

// Normalize maps a user token to a Kind by trimming whitespace and lower
// casing. The result is not validated; call Validate before use.
func Normalize(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// Validate returns ErrUnsupportedFilter unless k is a known kind.
func (k Kind) Validate() error {
	switch k {
	case Grayscale, Sepia:
		return nil
	default:
		return fmt.Errorf("%w %q (use 'grayscale' or 'sepia')", ErrUnsupportedFilter, string(k))
	}
}

// Subdir is the fixed output subdirectory for k. Empty for unknown kinds.
func (k Kind) Subdir() string {
	switch k {
	case Grayscale:
		return "grayscale"
	case Sepia:
		return "sepia"
	default:
		return ""
	}
}

func (k Kind) String() string { return string(k) }
