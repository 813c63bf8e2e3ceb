package panel

import (
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Timing describes the panel signal timing, in pixels for the horizontal
// values and in lines for the vertical values.
type Timing struct {
	HSync       int
	HBackPorch  int
	HFrontPorch int
	VSync       int
	VBackPorch  int
	VFrontPorch int

	// Width and Height of the active area.
	Width  int
	Height int
}

// DefaultTiming is the timing of the 800×480 panel.
var DefaultTiming = Timing{
	HSync:       1,
	HBackPorch:  1,
	HFrontPorch: 1,
	VSync:       1,
	VBackPorch:  1,
	VFrontPorch: 1,
	Width:       800,
	Height:      480,
}

// DefaultPixelClock is the pixel clock used when none is configured.
const DefaultPixelClock = 27429 * physic.KiloHertz

func (t Timing) String() string {
	return fmt.Sprintf("%dx%d sync=%d/%d porch=%d,%d/%d,%d",
		t.Width, t.Height, t.HSync, t.VSync, t.HBackPorch, t.HFrontPorch, t.VBackPorch, t.VFrontPorch)
}

// Validate checks that all values are positive.
func (t Timing) Validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"horizontal sync", t.HSync},
		{"horizontal back porch", t.HBackPorch},
		{"horizontal front porch", t.HFrontPorch},
		{"vertical sync", t.VSync},
		{"vertical back porch", t.VBackPorch},
		{"vertical front porch", t.VFrontPorch},
		{"width", t.Width},
		{"height", t.Height},
	} {
		if v.value <= 0 {
			return fmt.Errorf("panel: invalid timing, %s must be positive, got %d", v.name, v.value)
		}
	}
	return nil
}

// Bounds of the active area.
func (t Timing) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}

// TotalWidth is the number of pixel clocks per line.
func (t Timing) TotalWidth() int {
	return t.HSync + t.HBackPorch + t.Width + t.HFrontPorch
}

// TotalHeight is the number of lines per frame.
func (t Timing) TotalHeight() int {
	return t.VSync + t.VBackPorch + t.Height + t.VFrontPorch
}

// Accumulated is the timing as programmed into a timing controller: every
// field is the running sum up to and including that phase, minus one.
type Accumulated struct {
	HSync, VSync           int
	HBackPorch, VBackPorch int
	ActiveW, ActiveH       int
	TotalW, TotalH         int
}

// Accumulated returns the timing controller register view.
func (t Timing) Accumulated() Accumulated {
	return Accumulated{
		HSync:      t.HSync - 1,
		VSync:      t.VSync - 1,
		HBackPorch: t.HSync + t.HBackPorch - 1,
		VBackPorch: t.VSync + t.VBackPorch - 1,
		ActiveW:    t.HSync + t.HBackPorch + t.Width - 1,
		ActiveH:    t.VSync + t.VBackPorch + t.Height - 1,
		TotalW:     t.TotalWidth() - 1,
		TotalH:     t.TotalHeight() - 1,
	}
}

// FramePeriod is the duration of one frame at the given pixel clock.
func (t Timing) FramePeriod(pixelClock physic.Frequency) time.Duration {
	if pixelClock <= 0 {
		return 0
	}
	var (
		pixels = float64(t.TotalWidth() * t.TotalHeight())
		hz     = float64(pixelClock) / float64(physic.Hertz)
	)
	return time.Duration(pixels / hz * float64(time.Second))
}
