package filter

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/pngtone/internal/pixel"
)

func randomBuffer(t *testing.T, w, h int, seed uint64) *pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range b.Pix {
		b.Pix[i] = byte(rng.IntN(256))
	}
	return b
}

func singlePixel(t *testing.T, r, g, b, a uint8) *pixel.Buffer {
	t.Helper()
	buf, err := pixel.New(1, 1)
	require.NoError(t, err)
	buf.Set(0, 0, r, g, b, a)
	return buf
}

func mustApply(t *testing.T, k Kind, src *pixel.Buffer) *pixel.Buffer {
	t.Helper()
	out, err := Apply(context.Background(), k, src)
	require.NoError(t, err)
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"grayscale", Grayscale, false},
		{"GrayScale", Grayscale, false},
		{" sepia ", Sepia, false},
		{"invert", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			err := got.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubdir(t *testing.T) {
	assert.Equal(t, "grayscale", Grayscale.Subdir())
	assert.Equal(t, "sepia", Sepia.Subdir())
	assert.Equal(t, "", Kind("invert").Subdir())
	assert.NotEqual(t, Grayscale.Subdir(), Sepia.Subdir())
}

func TestApply_UnknownKind(t *testing.T) {
	src := singlePixel(t, 1, 2, 3, 4)
	out, err := Apply(context.Background(), Kind("invert"), src)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrUnsupportedFilter))
}

func TestApply_InvalidBuffer(t *testing.T) {
	bad := &pixel.Buffer{Width: 2, Height: 2, Pix: make([]byte, 3)}
	_, err := Apply(context.Background(), Grayscale, bad)
	assert.ErrorIs(t, err, pixel.ErrInvalidDimensions)
}

func TestGrayscale_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    uint8
	}{
		{"black", 0, 0, 0, 0},
		{"white", 255, 255, 255, 255},
		{"third rounds down", 1, 0, 0, 0},
		{"two thirds rounds up", 1, 1, 0, 1},
		{"mixed", 200, 100, 50, 117},
		{"max sum", 255, 255, 254, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustApply(t, Grayscale, singlePixel(t, tt.r, tt.g, tt.b, 77))
			r, g, b, a := out.At(0, 0)
			assert.Equal(t, []uint8{tt.want, tt.want, tt.want, 77}, []uint8{r, g, b, a})
		})
	}
}

func TestGrayscale_EqualChannelsAlphaPreserved(t *testing.T) {
	src := randomBuffer(t, 37, 23, 1)
	out := mustApply(t, Grayscale, src)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b, a := out.At(x, y)
			_, _, _, srcA := src.At(x, y)
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d): r=%d g=%d b=%d", x, y, r, g, b)
			}
			if a != srcA {
				t.Fatalf("pixel (%d,%d): alpha %d, want %d", x, y, a, srcA)
			}
		}
	}
}

func TestGrayscale_Idempotent(t *testing.T) {
	src := randomBuffer(t, 64, 64, 2)
	once := mustApply(t, Grayscale, src)
	twice := mustApply(t, Grayscale, once)
	assert.True(t, once.Equal(twice), "grayscale is not a fixed point")
}

func TestApply_DoesNotMutateSource(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			src := randomBuffer(t, 16, 8, 3)
			before := append([]byte(nil), src.Pix...)
			out := mustApply(t, k, src)
			assert.Equal(t, before, src.Pix)
			assert.NotSame(t, &src.Pix[0], &out.Pix[0])
		})
	}
}

func TestSepia_KnownValues(t *testing.T) {
	tests := []struct {
		name       string
		r, g, b    uint8
		wr, wg, wb uint8
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white clamps high", 255, 255, 255, 255, 255, 239},
		{"mixed", 200, 100, 50, 165, 147, 114},
		{"pure blue", 0, 0, 255, 48, 43, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustApply(t, Sepia, singlePixel(t, tt.r, tt.g, tt.b, 9))
			r, g, b, a := out.At(0, 0)
			assert.Equal(t, []uint8{tt.wr, tt.wg, tt.wb, 9}, []uint8{r, g, b, a})
		})
	}
}

func TestSepia_AlphaPreserved(t *testing.T) {
	src := randomBuffer(t, 31, 17, 4)
	out := mustApply(t, Sepia, src)
	for i := 3; i < len(src.Pix); i += pixel.BytesPerPixel {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("alpha at byte %d: got %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want byte
	}{
		{-12.7, 0},
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{254.4, 254},
		{254.6, 255},
		{344.5, 255},
	}
	for _, tt := range tests {
		if got := clampByte(tt.in); got != tt.want {
			t.Errorf("clampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestComposition_NotCommutative(t *testing.T) {
	src := singlePixel(t, 200, 100, 50, 255)

	sepiaThenGray := mustApply(t, Grayscale, mustApply(t, Sepia, src))
	grayThenSepia := mustApply(t, Sepia, mustApply(t, Grayscale, src))

	r, g, b, _ := sepiaThenGray.At(0, 0)
	assert.Equal(t, []uint8{142, 142, 142}, []uint8{r, g, b})

	r, g, b, _ = grayThenSepia.At(0, 0)
	assert.Equal(t, []uint8{158, 141, 110}, []uint8{r, g, b})

	assert.False(t, sepiaThenGray.Equal(grayThenSepia))
}

func TestApply_OnePixelImage(t *testing.T) {
	for _, k := range Kinds {
		out := mustApply(t, k, singlePixel(t, 10, 20, 30, 40))
		assert.Equal(t, 1, out.Width)
		assert.Equal(t, 1, out.Height)
		assert.Len(t, out.Pix, pixel.BytesPerPixel)
	}
}

func TestApply_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Apply(ctx, Sepia, randomBuffer(t, 4, 4, 5))
	assert.ErrorIs(t, err, context.Canceled)
}
