// Package codec converts between PNG files and [pixel.Buffer].
//
// Decoding streams from disk through image/png and materializes a single
// RGBA buffer. Encoding streams a buffer back out through a temp file that
// is renamed into place only after the write completes, so a reader never
// observes a half-written PNG under the final name.
package codec

import (
	"errors"
	"path/filepath"
	"strings"
)

// Sentinel errors. Every error returned by this package wraps one of them
// together with the path involved.
var (
	ErrDecode = errors.New("decode failed")
	ErrEncode = errors.New("encode failed")
)

// Ext is the file extension of the supported format.
const Ext = ".png"

// signature is the fixed 8-byte PNG header.
var signature = []byte("\x89PNG\r\n\x1a\n")

// IsSupported reports whether name carries the supported extension
// (case-insensitive).
func IsSupported(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Ext)
}
