package draw

import (
	"image"
	"image/color"
	"math"
)

// Line draws a line between two points.
func Line(dst Image, a, b image.Point, c color.Color) {
	bresenham(dst, a.X, a.Y, b.X, b.Y, c)
}

// HorizontalLine draws a line between (x,y) and (x+w-1,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	for i := 0; i < w; i++ {
		dst.Set(x+i, y, c)
	}
}

// VerticalLine draws a line between (x,y) and (x,y+h-1).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	for i := 0; i < h; i++ {
		dst.Set(x, y+i, c)
	}
}

// Rectangle draws the outline of a rectangle, rect.Max is exclusive.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	var (
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// Box draws a filled rectangle, clipped to the destination bounds.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon().Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	Draw(dst, rect, image.NewUniform(c), image.Point{}, Src)
}

// RoundedBox draws a filled rectangle with corners rounded off by radius.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	radius = min(radius, rect.Dx()/2, rect.Dy()/2)
	if radius <= 0 {
		Box(dst, rect, c)
		return
	}

	var (
		src = image.NewUniform(c)
		r   = float64(radius)
	)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		// Distance of the scanline center to the corner circle centers.
		var dy float64
		switch {
		case y < rect.Min.Y+radius:
			dy = float64(rect.Min.Y+radius-y) - 0.5
		case y >= rect.Max.Y-radius:
			dy = float64(y-rect.Max.Y+radius) + 0.5
		}
		var inset int
		if dy > 0 {
			inset = radius - int(math.Sqrt(r*r-dy*dy)+0.5)
		}
		row := image.Rect(rect.Min.X+inset, y, rect.Max.X-inset, y+1).Intersect(dst.Bounds())
		if !row.Empty() {
			Draw(dst, row, src, image.Point{}, Src)
		}
	}
}

// bresenham plots a line of any slope using integer arithmetic only.
func bresenham(dst Image, x0, y0, x1, y1 int, c color.Color) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		dst.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}
