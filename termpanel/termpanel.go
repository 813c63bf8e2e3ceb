// Package termpanel implements a panel that renders to a terminal using ANSI
// color codes.
//
// Useful to bring up the refresh loop and the scene on a host before the
// panel is wired.
package termpanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/pixel"
)

// Opts represents the options available for this display.
type Opts struct {
	// Timing of the emulated panel, the zero value selects panel.DefaultTiming.
	Timing panel.Timing

	// Columns is the number of terminal cells per line, defaults to 80.
	Columns int

	// Writer receives the rendered frames, defaults to the colorable stdout.
	Writer io.Writer

	Palette *ansi256.Palette
}

// Dev is a panel emulator that outputs to the console.
type Dev struct {
	panel.Notifier
	w       io.Writer
	palette ansi256.Palette
	timing  panel.Timing
	fb      *pixel.ARGB8888Image
	cols    int
	rows    int

	mu     sync.Mutex
	wg     sync.WaitGroup
	hidden bool
	cells  []color.NRGBA
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = new(Opts)
	}
	timing := opts.Timing
	if timing == (panel.Timing{}) {
		timing = panel.DefaultTiming
	}
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: termpanel: %w", panel.ErrInit, err)
	}

	cols := opts.Columns
	if cols <= 0 {
		cols = 80
	}
	cols = min(cols, timing.Width)
	// Terminal cells are about twice as high as they are wide.
	rows := max(1, cols*timing.Height/timing.Width/2)

	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}

	return &Dev{
		w:       w,
		palette: *p,
		timing:  timing,
		fb:      pixel.NewARGB8888Image(timing.Width, timing.Height),
		cols:    cols,
		rows:    rows,
		cells:   make([]color.NRGBA, cols*rows),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("Terminal %dx%d as %dx%d cells", d.timing.Width, d.timing.Height, d.cols, d.rows)
}

// Size returns the number of terminal columns and lines used.
func (d *Dev) Size() (cols, rows int) {
	return d.cols, d.rows
}

func (d *Dev) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

func (d *Dev) ColorModel() color.Model {
	return d.fb.ColorModel()
}

func (d *Dev) Framebuffer() *pixel.ARGB8888Image {
	return d.fb
}

// Show toggles rendering. A hidden panel still completes its refreshes.
func (d *Dev) Show(show bool) error {
	d.mu.Lock()
	d.hidden = !show
	d.mu.Unlock()
	return nil
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wg.Wait()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Close waits for the last refresh and resets the terminal.
func (d *Dev) Close() error {
	return d.Halt()
}

// Refresh samples the framebuffer down to the terminal cells; the frame is
// written and the refresh completes from another goroutine.
func (d *Dev) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Wait for the previous frame to be written, the cells are reused.
	d.wg.Wait()

	r := d.fb.Bounds()
	for row := 0; row < d.rows; row++ {
		y := r.Min.Y + (2*row+1)*r.Dy()/(2*d.rows)
		for col := 0; col < d.cols; col++ {
			x := r.Min.X + (2*col+1)*r.Dx()/(2*d.cols)
			d.cells[row*d.cols+col] = pixel.Unpack(d.fb.WordAt(x, y))
		}
	}

	d.wg.Add(1)
	go d.render(d.hidden)
	return nil
}

func (d *Dev) render(hidden bool) {
	defer d.wg.Done()
	if !hidden {
		// This code is designed to minimize the amount of memory allocated per call.
		d.buf.Reset()
		_, _ = d.buf.WriteString("\033[H\033[0m")
		for row := 0; row < d.rows; row++ {
			for _, c := range d.cells[row*d.cols : (row+1)*d.cols] {
				c.A = 0xff
				_, _ = io.WriteString(&d.buf, d.palette.Block(c))
			}
			_, _ = d.buf.WriteString("\033[0m\n")
		}
		_, _ = d.buf.WriteTo(d.w)
	}
	d.Notify()
}

// Draw implements display.Drawer. It paints src into the framebuffer and
// refreshes the terminal.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	d.wg.Wait()
	draw.Draw(d.fb, r, src, sp, draw.Src)
	d.mu.Unlock()
	return d.Refresh()
}

var (
	_ panel.Display  = (*Dev)(nil)
	_ display.Drawer = (*Dev)(nil)
	_ fmt.Stringer   = (*Dev)(nil)
)
