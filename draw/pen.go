package draw

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Align is the horizontal text alignment used by [Pen.DrawText].
type Align uint8

// Alignments.
const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Pen holds the current text color, back color and font for drawing into an image.
//
// A Pen keeps no state about what it has drawn.
type Pen struct {
	dst  Image
	fg   color.Color
	bg   color.Color
	face font.Face
}

// NewPen returns a Pen drawing white text in the fixed font on black.
func NewPen(dst Image) *Pen {
	return &Pen{
		dst:  dst,
		fg:   color.White,
		bg:   color.Black,
		face: FixedFace,
	}
}

// SetColor sets the color used for shapes and text.
func (p *Pen) SetColor(c color.Color) {
	p.fg = c
}

// SetBackColor sets the color used by [Pen.Clear].
func (p *Pen) SetBackColor(c color.Color) {
	p.bg = c
}

// SetFont sets the text face, nil selects [FixedFace].
func (p *Pen) SetFont(face font.Face) {
	if face == nil {
		face = FixedFace
	}
	p.face = face
}

// Clear fills the whole destination with the back color.
func (p *Pen) Clear() {
	Box(p.dst, p.dst.Bounds(), p.bg)
}

// FillRect fills r with the current color.
func (p *Pen) FillRect(r image.Rectangle) {
	Box(p.dst, r, p.fg)
}

// DrawRect outlines r with the current color.
func (p *Pen) DrawRect(r image.Rectangle) {
	Rectangle(p.dst, r, p.fg)
}

// TextSize returns the width and line height of s in the current font.
func (p *Pen) TextSize(s string) image.Point {
	m := p.face.Metrics()
	return image.Pt(font.MeasureString(p.face, s).Ceil(), (m.Ascent + m.Descent).Ceil())
}

// DrawText draws s with its top edge at pt.Y.
//
// With AlignLeft pt.X is the left edge, with AlignCenter the text is centered
// on the destination and shifted by pt.X, with AlignRight pt.X is the margin
// to the right edge. It returns the rectangle covered by the text line.
func (p *Pen) DrawText(pt image.Point, s string, align Align) image.Rectangle {
	var (
		bounds = p.dst.Bounds()
		size   = p.TextSize(s)
		x      = pt.X
	)
	switch align {
	case AlignCenter:
		x = bounds.Min.X + pt.X + (bounds.Dx()-size.X)/2
	case AlignRight:
		x = bounds.Max.X - pt.X - size.X
	}

	d := font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(p.fg),
		Face: p.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(pt.Y) + p.face.Metrics().Ascent},
	}
	d.DrawString(s)

	return image.Rectangle{Min: image.Pt(x, pt.Y), Max: image.Pt(x+size.X, pt.Y+size.Y)}
}
