package codec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/backmassage/pngtone/internal/pixel"
)

var (
	errEmpty        = errors.New("empty file")
	errBadSignature = errors.New("not a PNG (bad signature)")
)

// Decode reads the PNG at path into a new buffer. The read is abandoned
// when ctx is done. All failures wrap ErrDecode.
func Decode(ctx context.Context, path string) (*pixel.Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer func() { _ = f.Close() }()

	buf, err := DecodeReader(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// DecodeReader decodes a PNG stream. Failures wrap ErrDecode.
func DecodeReader(r io.Reader) (*pixel.Buffer, error) {
	buf, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return buf, nil
}

// decode checks the signature before the PNG decoder sees any bytes so that
// empty and non-PNG input are reported as such.
func decode(r io.Reader) (*pixel.Buffer, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(signature))
	switch {
	case len(head) == 0 && (err == nil || errors.Is(err, io.EOF)):
		return nil, errEmpty
	case err != nil && !errors.Is(err, io.EOF):
		return nil, err
	case !bytes.Equal(head, signature):
		return nil, errBadSignature
	}

	img, err := png.Decode(br)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// FromImage copies img into a non-premultiplied RGBA buffer.
//
// NRGBA images and fully opaque RGBA images are copied row by row. Anything
// else (gray, paletted, 16-bit) goes through draw.Src into an NRGBA image;
// 16-bit channels lose their low byte.
func FromImage(img image.Image) (*pixel.Buffer, error) {
	bounds := img.Bounds()
	buf, err := pixel.New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	rowLen := buf.Stride()

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < buf.Height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Row(y), src.Pix[off:off+rowLen])
		}
		return buf, nil

	case *image.RGBA:
		if src.Opaque() {
			for y := 0; y < buf.Height; y++ {
				off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
				copy(buf.Row(y), src.Pix[off:off+rowLen])
			}
			return buf, nil
		}
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				c := color.NRGBAModel.Convert(src.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				buf.Set(x, y, c.R, c.G, c.B, c.A)
			}
		}
		return buf, nil
	}

	dst := buf.NRGBA()
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return buf, nil
}

// ctxReader fails reads once ctx is done, which bounds how long a decode of
// a malformed or very slow file can hold a worker.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
