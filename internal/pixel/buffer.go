// Package pixel defines the raw RGBA raster that flows between the codec
// and the filters.
//
// A [Buffer] is owned by exactly one pipeline stage at a time: the decoder
// produces it, a filter consumes it and returns a new one, and the encoder
// consumes that. Stages never share a Buffer.
package pixel

import (
	"errors"
	"fmt"
	"image"
)

// BytesPerPixel is the packed size of one RGBA pixel.
const BytesPerPixel = 4

// ErrInvalidDimensions is returned when a buffer has non-positive dimensions
// or a pixel slice whose length does not match them.
var ErrInvalidDimensions = errors.New("pixel: invalid dimensions")

// Buffer is a row-major, non-premultiplied RGBA raster.
// len(Pix) is always Width*Height*BytesPerPixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed buffer of the given size.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}, nil
}

// Validate checks the length invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidDimensions)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if want := b.Width * b.Height * BytesPerPixel; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, have %d",
			ErrInvalidDimensions, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// Offset returns the index of the red byte of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (b.Width*y + x) * BytesPerPixel
}

// Stride is the number of bytes in one row.
func (b *Buffer) Stride() int {
	return b.Width * BytesPerPixel
}

// Row returns the bytes of row y. The slice aliases Pix.
func (b *Buffer) Row(y int) []byte {
	start := y * b.Stride()
	return b.Pix[start : start+b.Stride()]
}

// Pixels returns Width*Height.
func (b *Buffer) Pixels() int {
	return b.Width * b.Height
}

// At returns the channels of pixel (x, y).
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	i := b.Offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// Set stores the channels of pixel (x, y).
func (b *Buffer) Set(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = r, g, bl, a
}

// NRGBA returns an *image.NRGBA view over the same memory, for handing to
// the standard image encoders without a copy.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Equal reports whether two buffers have identical dimensions and bytes.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Width != o.Width || b.Height != o.Height || len(b.Pix) != len(o.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
