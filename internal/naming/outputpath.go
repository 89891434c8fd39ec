package naming

import (
	"path/filepath"

	"github.com/backmassage/pngtone/internal/filter"
)

// OutputDir is the directory every output for kind is written to.
func OutputDir(root string, kind filter.Kind) string {
	return filepath.Join(root, kind.Subdir())
}

// OutputPath builds the output file path for input under root.
//
//	<root>/<kind.Subdir()>/<basename(input)>
func OutputPath(root string, kind filter.Kind, input string) string {
	return filepath.Join(OutputDir(root, kind), filepath.Base(input))
}
