package pixel

import (
	"image"
	"image/color"

	"github.com/BeatGlow/panel/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// ARGB8888Image is a 32-bits per pixel image stored as one packed word per pixel.
//
// This is the framebuffer format; Pix can be handed to a block-copy
// accelerator as-is.
type ARGB8888Image struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the packed 0xAARRGGBB pixel words.
	Pix []uint32

	// Stride is the Pix stride (in pixels) between vertically adjacent pixels.
	Stride int
}

func NewARGB8888Image(w, h int) *ARGB8888Image {
	return &ARGB8888Image{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]uint32, w*h),
		Stride: w,
	}
}

func (p *ARGB8888Image) Bounds() image.Rectangle {
	return p.Rect
}

func (p *ARGB8888Image) ColorModel() color.Model {
	return ARGB8888Model
}

// PixOffset returns the index of the word for the pixel at (x, y).
func (p *ARGB8888Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

func (p *ARGB8888Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return ARGB8888{p.Pix[p.PixOffset(x, y)]}
}

// WordAt returns the raw pixel word at (x, y), or zero when out of bounds.
func (p *ARGB8888Image) WordAt(x, y int) uint32 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

func (p *ARGB8888Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = Pack(c)
}

// SetWord sets the raw pixel word at (x, y).
func (p *ARGB8888Image) SetWord(x, y int, v uint32) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = v
}

func (p *ARGB8888Image) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0
	}
}

func (p *ARGB8888Image) Fill(c color.Color) {
	value := Pack(c)
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// Rows calls fn for every scanline of r, with the words of that scanline.
func (p *ARGB8888Image) Rows(r image.Rectangle, fn func(y int, row []uint32)) {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		fn(y, p.Pix[i:i+r.Dx()])
	}
}

// Words converts an image to a tightly packed, row-major slice of ARGB8888 words.
func Words(src image.Image) []uint32 {
	if i, ok := src.(*ARGB8888Image); ok && i.Stride == i.Rect.Dx() {
		return i.Pix
	}

	var (
		r     = src.Bounds()
		words = make([]uint32, 0, r.Dx()*r.Dy())
	)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			words = append(words, Pack(src.At(x, y)))
		}
	}
	return words
}

// Format is a pixel format used on the wire between host and panel.
type Format uint8

// Supported wire formats.
const (
	FormatRGB565 Format = iota
	FormatRGB888
)

func (f Format) String() string {
	switch f {
	case FormatRGB565:
		return "RGB565"
	case FormatRGB888:
		return "RGB888"
	default:
		return "unknown"
	}
}

// BytesPerPixel for the wire format.
func (f Format) BytesPerPixel() int {
	if f == FormatRGB888 {
		return 3
	}
	return 2
}

// AppendWords encodes ARGB8888 words in the wire format f and appends them to
// dst. The alpha channel is dropped.
func AppendWords(dst []byte, f Format, words []uint32) []byte {
	switch f {
	case FormatRGB888:
		for _, v := range words {
			dst = append(dst, byte(v>>16), byte(v>>8), byte(v))
		}
	default:
		for _, v := range words {
			c := ToRGB565(v)
			dst = append(dst, byte(c>>8), byte(c))
		}
	}
	return dst
}

// Interface check.
var _ Image = (*ARGB8888Image)(nil)
