package codec

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/backmassage/pngtone/internal/pixel"
)

// Encoder writes buffers as PNG. The zero value uses default compression.
// An Encoder is safe for concurrent use; its zlib buffers are pooled
// across calls.
type Encoder struct {
	Level png.CompressionLevel

	once sync.Once
	enc  *png.Encoder
}

func (e *Encoder) encoder() *png.Encoder {
	e.once.Do(func() {
		e.enc = &png.Encoder{
			CompressionLevel: e.Level,
			BufferPool:       &bufferPool{},
		}
	})
	return e.enc
}

// Encode writes buf to path. The PNG is written to a temp file in the same
// directory and renamed over path on success; on any failure the temp file
// is removed and path is untouched. The destination directory must exist.
// All failures wrap ErrEncode.
func (e *Encoder) Encode(ctx context.Context, buf *pixel.Buffer, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, path, err)
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, path, err)
	}
	if err := e.atomicWrite(path, buf); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, path, err)
	}
	return nil
}

// EncodeWriter streams buf as PNG to w.
func (e *Encoder) EncodeWriter(w io.Writer, buf *pixel.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := e.encoder().Encode(w, buf.NRGBA()); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

func (e *Encoder) atomicWrite(path string, buf *pixel.Buffer) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := e.encoder().Encode(tmp, buf.NRGBA()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// bufferPool implements png.EncoderBufferPool on a sync.Pool.
type bufferPool struct {
	pool sync.Pool
}

func (p *bufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *bufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
