package panel

import (
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
)

func TestTimingDefault(t *testing.T) {
	if w, h := DefaultTiming.TotalWidth(), DefaultTiming.TotalHeight(); w != 803 || h != 483 {
		t.Errorf("expected total 803x483, got %dx%d", w, h)
	}
	if b := DefaultTiming.Bounds(); b != image.Rect(0, 0, 800, 480) {
		t.Errorf("expected bounds %s, got %s", image.Rect(0, 0, 800, 480), b)
	}
	if err := DefaultTiming.Validate(); err != nil {
		t.Errorf("expected default timing to be valid, got %v", err)
	}
}

func TestTimingAccumulated(t *testing.T) {
	want := Accumulated{
		HSync:      0,
		VSync:      0,
		HBackPorch: 1,
		VBackPorch: 1,
		ActiveW:    801,
		ActiveH:    481,
		TotalW:     802,
		TotalH:     482,
	}
	if diff := cmp.Diff(want, DefaultTiming.Accumulated()); diff != "" {
		t.Errorf("Accumulated() mismatch (-want +got):\n%s", diff)
	}
}

func TestTimingValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Timing)
	}{
		{"hsync", func(t *Timing) { t.HSync = 0 }},
		{"vsync", func(t *Timing) { t.VSync = -1 }},
		{"hbp", func(t *Timing) { t.HBackPorch = 0 }},
		{"vfp", func(t *Timing) { t.VFrontPorch = 0 }},
		{"width", func(t *Timing) { t.Width = 0 }},
		{"height", func(t *Timing) { t.Height = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			timing := DefaultTiming
			test.modify(&timing)
			if err := timing.Validate(); err == nil {
				t.Errorf("expected %s to be rejected", timing)
			}
		})
	}
}

func TestTimingFramePeriod(t *testing.T) {
	period := DefaultTiming.FramePeriod(DefaultPixelClock)
	// 803 * 483 pixels at 27.429 MHz.
	want := 14140 * time.Microsecond
	if d := period - want; d < -10*time.Microsecond || d > 10*time.Microsecond {
		t.Errorf("expected frame period of about %s, got %s", want, period)
	}
	if period := DefaultTiming.FramePeriod(0); period != 0 {
		t.Errorf("expected zero frame period without a pixel clock, got %s", period)
	}
	if period := DefaultTiming.FramePeriod(physic.Hertz); period <= time.Second {
		t.Errorf("expected a very long frame period at 1 Hz, got %s", period)
	}
}
