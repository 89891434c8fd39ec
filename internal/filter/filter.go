// Package filter implements the per-pixel color transforms.
//
// Transforms are pure: [Apply] reads the source buffer and returns a new one,
// with no I/O and no shared state, so it is safe to run on many images
// concurrently.
package filter

import (
	"context"
	"math"

	"github.com/backmassage/pngtone/internal/pixel"
)

// rowsPerCheck is how many rows are transformed between context checks.
const rowsPerCheck = 256

// rowFunc transforms one row of packed RGBA from src into dst.
type rowFunc func(dst, src []byte)

// Apply runs the transform selected by kind over src and returns a new
// buffer. src is left untouched. It returns ErrUnsupportedFilter for an
// unknown kind and the context error if ctx is done mid-image.
func Apply(ctx context.Context, kind Kind, src *pixel.Buffer) (*pixel.Buffer, error) {
	var fn rowFunc
	switch kind {
	case Grayscale:
		fn = grayscaleRow
	case Sepia:
		fn = sepiaRow
	default:
		return nil, kind.Validate()
	}

	if err := src.Validate(); err != nil {
		return nil, err
	}
	dst, err := pixel.New(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	for y := 0; y < src.Height; y++ {
		if y%rowsPerCheck == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fn(dst.Row(y), src.Row(y))
	}
	return dst, nil
}

// grayscaleRow sets R, G and B to round((R+G+B)/3). The sum is an integer
// so the mean's fraction is 0, 1/3 or 2/3 and (sum+1)/3 is exact rounding.
func grayscaleRow(dst, src []byte) {
	for i := 0; i+3 < len(src); i += pixel.BytesPerPixel {
		sum := int(src[i]) + int(src[i+1]) + int(src[i+2])
		gray := byte((sum + 1) / 3)
		dst[i] = gray
		dst[i+1] = gray
		dst[i+2] = gray
		dst[i+3] = src[i+3]
	}
}

// sepiaRow applies the sepia matrix. Every output channel is computed from
// the original R, G, B, then clamped to [0, 255] and rounded.
func sepiaRow(dst, src []byte) {
	for i := 0; i+3 < len(src); i += pixel.BytesPerPixel {
		r := float64(src[i])
		g := float64(src[i+1])
		b := float64(src[i+2])
		dst[i] = clampByte(0.393*r + 0.769*g + 0.189*b)
		dst[i+1] = clampByte(0.349*r + 0.686*g + 0.168*b)
		dst[i+2] = clampByte(0.272*r + 0.534*g + 0.131*b)
		dst[i+3] = src[i+3]
	}
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(math.Round(v))
	}
}
