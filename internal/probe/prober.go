package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/backmassage/pngtone/internal/codec"
)

// headerLen covers the signature and the complete IHDR chunk including CRC.
const headerLen = 8 + 4 + 4 + 13 + 4

var (
	errShortHeader = errors.New("file too short for a PNG header")
	errSignature   = errors.New("not a PNG (bad signature)")
	errNoIHDR      = errors.New("first chunk is not IHDR")
)

// Probe reads the header of the PNG at path. Failures wrap codec.ErrDecode:
// a file that cannot be probed cannot be decoded either.
func Probe(ctx context.Context, path string) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", codec.ErrDecode, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrDecode, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", codec.ErrDecode, path, err)
	}

	hdr := make([]byte, headerLen)
	if _, err := io.ReadFull(f, hdr); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", codec.ErrDecode, path, errShortHeader)
	}
	info, err := ParseHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", codec.ErrDecode, path, err)
	}

	// image/png checks the IHDR CRC and rejects combinations ParseHeader
	// does not know about (bad depth for the color type, missing PLTE).
	if _, err := png.DecodeConfig(io.MultiReader(bytes.NewReader(hdr), f)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", codec.ErrDecode, path, err)
	}

	info.Path = path
	info.Size = st.Size()
	return info, nil
}

// ParseHeader decodes the signature and IHDR fields from the first bytes of
// a PNG file. Exported for testing without files on disk.
func ParseHeader(data []byte) (*Info, error) {
	if len(data) < headerLen {
		return nil, errShortHeader
	}
	if !bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")) {
		return nil, errSignature
	}
	if binary.BigEndian.Uint32(data[8:12]) != 13 || string(data[12:16]) != "IHDR" {
		return nil, errNoIHDR
	}

	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	if w == 0 || h == 0 || w > 1<<31-1 || h > 1<<31-1 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}
	return &Info{
		Width:     int(w),
		Height:    int(h),
		BitDepth:  int(data[24]),
		ColorType: ColorType(data[25]),
		Interlace: data[28],
	}, nil
}
