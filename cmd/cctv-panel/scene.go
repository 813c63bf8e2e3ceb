package main

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/BeatGlow/panel/blit"
	"github.com/BeatGlow/panel/draw"
	"github.com/BeatGlow/panel/pixel"
)

var (
	backgroundColor = color.NRGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff}
	captionColor    = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	buttonColor     = color.NRGBA{R: 0x20, G: 0x60, B: 0xc0, A: 0xff}
)

// scene is the static monitor screen: a caption and a few lines of info text
// above the camera image, and a button below it.
type scene struct {
	Image   image.Image // nil shows the test card
	Caption string
	Info    []string
	Button  string
}

type layout struct {
	caption image.Rectangle
	info    image.Rectangle
	image   image.Rectangle
	button  image.Rectangle
}

func (s *scene) layout(r image.Rectangle) layout {
	var (
		margin = max(r.Dx()/40, 2)
		band   = r.Dy() / 8
		button = image.Pt(r.Dx()/4, band-margin)
		l      layout
	)
	l.caption = image.Rect(r.Min.X, r.Min.Y+margin, r.Max.X, r.Min.Y+band)
	l.info = image.Rect(r.Min.X, l.caption.Max.Y, r.Max.X, l.caption.Max.Y+len(s.Info)*band/2)
	l.button.Min = image.Pt(r.Min.X+(r.Dx()-button.X)/2, r.Max.Y-margin-button.Y)
	l.button.Max = l.button.Min.Add(button)
	l.image = image.Rect(r.Min.X+margin, l.info.Max.Y+margin, r.Max.X-margin, l.button.Min.Y-margin)
	return l
}

// paint draws the scene into fb.
func (s *scene) paint(fb *pixel.ARGB8888Image, b *blit.Blitter) error {
	r := fb.Bounds()
	l := s.layout(r)

	if err := b.Fill(fb, r, backgroundColor); err != nil {
		return fmt.Errorf("background: %w", err)
	}

	if !l.image.Empty() {
		var src image.Image
		if s.Image == nil {
			src = draw.TestCard(l.image.Size())
		} else {
			src = fit(s.Image, l.image.Size())
		}
		if err := b.CopyImage(fb, l.image.Min, src); err != nil {
			return fmt.Errorf("image: %w", err)
		}
	}

	if s.Caption != "" {
		pen := draw.NewPen(fb)
		pen.SetColor(captionColor)
		pen.SetFont(draw.BoldFace(float64(l.caption.Dy()) * 3 / 4))
		pen.DrawText(image.Pt(0, l.caption.Min.Y), s.Caption, draw.AlignCenter)
	}

	if len(s.Info) > 0 {
		line := l.info.Dy() / len(s.Info)
		pen := draw.NewPen(fb)
		pen.SetColor(captionColor)
		pen.SetFont(draw.DefaultFace(float64(line) * 3 / 4))
		for i, text := range s.Info {
			pen.DrawText(image.Pt(0, l.info.Min.Y+i*line), text, draw.AlignCenter)
		}
	}

	if s.Button != "" && !l.button.Empty() {
		face := draw.DefaultFace(float64(l.button.Dy()) / 2)
		button := draw.Button(s.Button, l.button.Size(), face, captionColor, buttonColor)
		if err := b.CopyImage(fb, l.button.Min, button); err != nil {
			return fmt.Errorf("button: %w", err)
		}
	}
	return nil
}

// fit scales src to size.
func fit(src image.Image, size image.Point) image.Image {
	if src.Bounds().Size() == size {
		return src
	}
	dst := pixel.NewARGB8888Image(size.X, size.Y)
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
