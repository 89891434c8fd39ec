package probe

import "fmt"

// ColorType is the PNG IHDR color type byte.
type ColorType uint8

const (
	ColorGray      ColorType = 0
	ColorRGB       ColorType = 2
	ColorPaletted  ColorType = 3
	ColorGrayAlpha ColorType = 4
	ColorRGBA      ColorType = 6
)

var colorTypeNames = map[ColorType]string{
	ColorGray:      "gray",
	ColorRGB:       "rgb",
	ColorPaletted:  "paletted",
	ColorGrayAlpha: "gray+alpha",
	ColorRGBA:      "rgba",
}

func (c ColorType) String() string {
	if name, ok := colorTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// HasAlpha reports whether the color type carries an alpha channel. Paletted
// images may still be translucent through a tRNS chunk.
func (c ColorType) HasAlpha() bool {
	return c == ColorGrayAlpha || c == ColorRGBA
}

// Info is the header-level description of a single PNG file.
type Info struct {
	Path      string
	Size      int64 // File size in bytes; zero for ParseHeader results.
	Width     int
	Height    int
	BitDepth  int
	ColorType ColorType
	Interlace uint8 // 0 none, 1 Adam7.
}

// Resolution returns "WxH", or "unknown" when dimensions are missing.
func (i *Info) Resolution() string {
	if i.Width <= 0 || i.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Pixels is the pixel count, computed in 64 bits so huge headers cannot overflow.
func (i *Info) Pixels() int64 {
	return int64(i.Width) * int64(i.Height)
}

// DecodedBytes is the size of the 8-bit RGBA buffer a full decode allocates.
func (i *Info) DecodedBytes() int64 {
	return i.Pixels() * 4
}
