package draw

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Button renders a rounded, outlined button of the given size with a centered label.
//
// The button is only a picture: it has no input handling attached.
func Button(label string, size image.Point, face font.Face, fg, bg color.Color) image.Image {
	var (
		dc     = gg.NewContext(size.X, size.Y)
		w, h   = float64(size.X), float64(size.Y)
		radius = h / 4
	)

	dc.SetColor(bg)
	dc.DrawRoundedRectangle(0, 0, w, h, radius)
	dc.Fill()

	dc.SetColor(fg)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(1, 1, w-2, h-2, radius)
	dc.Stroke()

	if face != nil {
		dc.SetFontFace(face)
	}
	dc.DrawStringAnchored(label, w/2, h/2, 0.5, 0.35)

	return dc.Image()
}

// testCardColors are the 75% SMPTE color bars.
var testCardColors = []color.RGBA{
	{R: 0xbf, G: 0xbf, B: 0xbf, A: 0xff}, // gray
	{R: 0xbf, G: 0xbf, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xbf, B: 0xbf, A: 0xff}, // cyan
	{R: 0x00, G: 0xbf, B: 0x00, A: 0xff}, // green
	{R: 0xbf, G: 0x00, B: 0xbf, A: 0xff}, // magenta
	{R: 0xbf, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0x00, B: 0xbf, A: 0xff}, // blue
}

// TestCard renders a color bar test card with a centered circle, used as the
// static image when no picture is supplied.
func TestCard(size image.Point) image.Image {
	var (
		dc   = gg.NewContext(size.X, size.Y)
		w, h = float64(size.X), float64(size.Y)
		bar  = w / float64(len(testCardColors))
	)

	for i, c := range testCardColors {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*bar, 0, bar+1, h*3/4)
		dc.Fill()
	}

	// Gray ramp along the bottom quarter.
	for x := 0; x < size.X; x++ {
		y := uint8(x * 0xff / max(size.X-1, 1))
		dc.SetColor(color.RGBA{R: y, G: y, B: y, A: 0xff})
		dc.DrawRectangle(float64(x), h*3/4, 1, h/4)
		dc.Fill()
	}

	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawCircle(w/2, h/2, min(w, h)/3)
	dc.Stroke()

	return dc.Image()
}
