package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/pngtone/internal/codec"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, img))
	return b.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// rawHeader builds a signature plus IHDR with the given fields. The CRC is
// left zero, which ParseHeader does not check.
func rawHeader(w, h uint32, depth, colorType, interlace byte) []byte {
	b := make([]byte, headerLen)
	copy(b, "\x89PNG\r\n\x1a\n")
	binary.BigEndian.PutUint32(b[8:], 13)
	copy(b[12:], "IHDR")
	binary.BigEndian.PutUint32(b[16:], w)
	binary.BigEndian.PutUint32(b[20:], h)
	b[24], b[25], b[28] = depth, colorType, interlace
	return b
}

func TestProbe_ColorTypes(t *testing.T) {
	dir := t.TempDir()

	translucent := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 10})

	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}

	deep := image.NewNRGBA64(image.Rect(0, 0, 5, 1))
	deep.SetNRGBA64(0, 0, color.NRGBA64{R: 1, A: 100})

	pal := image.NewPaletted(image.Rect(0, 0, 3, 3), color.Palette{color.Black, color.White})

	tests := []struct {
		name      string
		img       image.Image
		wantType  ColorType
		wantDepth int
		wantW     int
		wantH     int
	}{
		{"rgba", translucent, ColorRGBA, 8, 4, 3},
		{"opaque rgb", opaque, ColorRGB, 8, 2, 2},
		{"gray", image.NewGray(image.Rect(0, 0, 7, 1)), ColorGray, 8, 7, 1},
		{"16-bit rgba", deep, ColorRGBA, 16, 5, 1},
		{"paletted", pal, ColorPaletted, 1, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodePNG(t, tt.img)
			path := writeFile(t, dir, tt.name+".png", data)

			info, err := Probe(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, path, info.Path)
			assert.Equal(t, int64(len(data)), info.Size)
			assert.Equal(t, tt.wantW, info.Width)
			assert.Equal(t, tt.wantH, info.Height)
			assert.Equal(t, tt.wantType, info.ColorType)
			assert.Equal(t, tt.wantDepth, info.BitDepth)
			assert.Equal(t, tt.wantDepth == 16, info.IsHighBitDepth())
			assert.False(t, info.IsInterlaced())
		})
	}
}

func TestProbe_Failures(t *testing.T) {
	dir := t.TempDir()
	good := encodePNG(t, image.NewGray(image.Rect(0, 0, 2, 2)))

	badCRC := append([]byte(nil), good...)
	badCRC[29] ^= 0xff

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.png")},
		{"empty", writeFile(t, dir, "empty.png", nil)},
		{"short", writeFile(t, dir, "short.png", good[:20])},
		{"not png", writeFile(t, dir, "text.png", bytes.Repeat([]byte("x"), 64))},
		{"bad ihdr crc", writeFile(t, dir, "crc.png", badCRC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Probe(context.Background(), tt.path)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, codec.ErrDecode)
		})
	}
}

func TestProbe_CanceledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.png", encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1))))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Probe(ctx, path)
	assert.ErrorIs(t, err, codec.ErrDecode)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseHeader(t *testing.T) {
	info, err := ParseHeader(rawHeader(640, 480, 8, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "640x480", info.Resolution())
	assert.Equal(t, int64(640*480), info.Pixels())
	assert.Equal(t, int64(640*480*4), info.DecodedBytes())
	assert.True(t, info.IsInterlaced())
	assert.True(t, info.ColorType.HasAlpha())

	bad := []struct {
		name string
		data []byte
	}{
		{"too short", rawHeader(1, 1, 8, 6, 0)[:20]},
		{"zero width", rawHeader(0, 1, 8, 6, 0)},
		{"huge height", rawHeader(1, 1<<31, 8, 6, 0)},
		{"wrong chunk", func() []byte { b := rawHeader(1, 1, 8, 6, 0); copy(b[12:], "IDAT"); return b }()},
		{"wrong signature", func() []byte { b := rawHeader(1, 1, 8, 6, 0); b[1] = 'J'; return b }()},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestPixels_NoOverflow(t *testing.T) {
	info := &Info{Width: 1 << 30, Height: 1 << 30}
	assert.Equal(t, int64(1)<<60, info.Pixels())
}

func TestColorTypeString(t *testing.T) {
	tests := []struct {
		c    ColorType
		want string
	}{
		{ColorGray, "gray"},
		{ColorRGB, "rgb"},
		{ColorPaletted, "paletted"},
		{ColorGrayAlpha, "gray+alpha"},
		{ColorRGBA, "rgba"},
		{ColorType(5), "unknown(5)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}
	assert.Equal(t, "unknown", (&Info{}).Resolution())
}
