package pixel

import "image/color"

// Models for the color types in this package.
var (
	ARGB8888Model color.Model = color.ModelFunc(argb8888Model)
	RGB565Model   color.Model = color.ModelFunc(rgb565Model)
)

// ARGB8888 represents a 32-bit packed color word laid out as 0xAARRGGBB.
//
// The color components are not alpha-premultiplied, this is the native
// framebuffer format of the panel and the block-copy accelerator.
type ARGB8888 struct {
	V uint32
}

func (c ARGB8888) RGBA() (r, g, b, a uint32) {
	return Unpack(c.V).RGBA()
}

// Pack converts any color to an ARGB8888 word.
func Pack(c color.Color) uint32 {
	if v, ok := c.(ARGB8888); ok {
		return v.V
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return uint32(n.A)<<24 | uint32(n.R)<<16 | uint32(n.G)<<8 | uint32(n.B)
}

// Unpack converts an ARGB8888 word to a non-premultiplied color.
func Unpack(v uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}

func argb8888Model(c color.Color) color.Color {
	if _, ok := c.(ARGB8888); ok {
		return c
	}
	return ARGB8888{Pack(c)}
}

// RGB565 represents a 16-bit 5-6-5 RGB color, as sent over the display link.
type RGB565 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c RGB565) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := (c.V & 0xF800) >> 8
	grn := (c.V & 0x07E0) >> 3
	blu := (c.V & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return uint32(red), uint32(grn), uint32(blu), 0xffff
}

func rgb565Model(c color.Color) color.Color {
	switch c := c.(type) {
	case RGB565:
		return c
	case ARGB8888:
		return RGB565{ToRGB565(c.V)}
	default:
		r, g, b, _ := c.RGBA()
		r = (r & 0xF800)
		g = (g & 0xFC00) >> 5
		b = (b & 0xF800) >> 11
		return RGB565{uint16(r | g | b)}
	}
}

// ToRGB565 converts an ARGB8888 word to RGB565. The alpha channel is dropped
// and the color components are truncated.
func ToRGB565(v uint32) uint16 {
	return uint16((v>>8)&0xF800 | (v>>5)&0x07E0 | (v>>3)&0x001F)
}
