package probe

// IsHighBitDepth reports a 16-bit-per-channel image. These decode losslessly
// but are reduced to 8 bits per channel in the working buffer and on output.
func (i *Info) IsHighBitDepth() bool {
	return i.BitDepth == 16
}

// IsInterlaced reports Adam7 interlacing. Output is always written
// non-interlaced.
func (i *Info) IsInterlaced() bool {
	return i.Interlace == 1
}
