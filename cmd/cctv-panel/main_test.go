package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/termpanel"
)

// closeCounter counts the calls to Close.
type closeCounter struct {
	panel.Display
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Display.Close()
}

func newTestOutput(t *testing.T) *closeCounter {
	t.Helper()
	d, err := termpanel.New(&termpanel.Opts{
		Timing:  panel.Timing{HSync: 1, HBackPorch: 1, HFrontPorch: 1, VSync: 1, VBackPorch: 1, VFrontPorch: 1, Width: 160, Height: 96},
		Columns: 16,
		Writer:  io.Discard,
	})
	if err != nil {
		t.Fatalf("termpanel.New() failed: %v", err)
	}
	return &closeCounter{Display: d}
}

func TestRunClosesOnError(t *testing.T) {
	output := newTestOutput(t)
	err := run(context.Background(), output, &options{
		Image: filepath.Join(t.TempDir(), "missing.png"),
	})
	if err == nil {
		t.Fatal("expected a missing image to fail")
	}
	if output.closed != 1 {
		t.Errorf("expected the display to be closed once, got %d", output.closed)
	}
}

func TestRunClosesOnStop(t *testing.T) {
	output := newTestOutput(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	if err := run(ctx, output, &options{
		Caption:  "CCTV FEED",
		Info:     splitLines("FRONT DOOR|SWITCH VIEW"),
		Button:   "SWITCH",
		Timeout:  time.Second,
		Interval: 5 * time.Millisecond,
	}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if output.closed != 1 {
		t.Errorf("expected the display to be closed once, got %d", output.closed)
	}
}

func TestSplitLines(t *testing.T) {
	if lines := splitLines(""); lines != nil {
		t.Errorf("expected no lines, got %q", lines)
	}
	want := []string{"THIS IS SHOWING YOUR FRONT DOOR", "USE THE SWITCH BUTTON TO SWITCH VIEW"}
	if diff := cmp.Diff(want, splitLines("THIS IS SHOWING YOUR FRONT DOOR|USE THE SWITCH BUTTON TO SWITCH VIEW")); diff != "" {
		t.Errorf("splitLines() mismatch (-want +got):\n%s", diff)
	}
}
