package display

import (
	"fmt"
	"io"

	"github.com/backmassage/pngtone/internal/term"
)

// PrintBanner writes the ASCII art banner to w, in cyan when colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Cyan)
	fmt.Fprint(w, `                    _
 _ __  _ __   __ _| |_ ___  _ __   ___
| '_ \| '_ \ / _`+"`"+` | __/ _ \| '_ \ / _ \
| |_) | | | | (_| | || (_) | | | |  __/
| .__/|_| |_|\__, |\__\___/|_| |_|\___|
|_|          |___/
`)
	fmt.Fprintln(w, term.NC)
}
