package panel

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/panel/pixel"
)

// MIPI Display Command Set (DCS) commands.
const (
	dcsSWRESET = 0x01 // Software Reset
	dcsSLPIN   = 0x10 // Sleep In
	dcsSLPOUT  = 0x11 // Sleep Out
	dcsDISPOFF = 0x28 // Display Off
	dcsDISPON  = 0x29 // Display On
	dcsCASET   = 0x2A // Column Address Set
	dcsPASET   = 0x2B // Page Address Set
	dcsRAMWR   = 0x2C // Memory Write
	dcsTEOFF   = 0x34 // Tearing Effect Line Off
	dcsTEON    = 0x35 // Tearing Effect Line On
	dcsMADCTL  = 0x36 // Memory Data Access Control
	dcsCOLMOD  = 0x3A // Interface Pixel Format
	dcsWRDISBV = 0x51 // Write Display Brightness
	dcsWRCTRLD = 0x53 // Write CTRL Display
)

// Interface pixel formats (COLMOD).
const (
	dcsPixel16 = 0x55 // 16 bits per pixel, RGB 5-6-5
	dcsPixel24 = 0x77 // 24 bits per pixel, RGB 8-8-8
)

// Write CTRL Display bits.
const (
	dcsBacklightOn      = 1 << 2 // BL
	dcsDisplayDimming   = 1 << 3 // DD
	dcsBrightnessCtrlOn = 1 << 5 // BCTRL
)

// Delays required by the command set.
const (
	dcsResetPulse    = 10 * time.Millisecond
	dcsResetDelay    = 5 * time.Millisecond
	dcsSleepOutDelay = 120 * time.Millisecond
)

// sleep is replaced in tests.
var sleep = time.Sleep

type dcsPanel struct {
	Notifier
	link   Link
	config Config
	fb     *pixel.ARGB8888Image
	frame  time.Duration
	buf    []byte

	mu sync.Mutex
	wg sync.WaitGroup
}

// DCS initializes a command-mode panel that implements the standard MIPI
// display command set over link.
//
// When config.TE is set, a refresh completes on the next tearing effect edge
// after the framebuffer was written, otherwise it completes as soon as the
// transfer is done.
func DCS(link Link, config *Config) (Display, error) {
	d := &dcsPanel{link: link}
	if config != nil {
		d.config = *config
	}
	d.config.setDefaults()

	if err := d.init(); err != nil {
		return nil, fmt.Errorf("%w: dcs: %w", ErrInit, err)
	}
	return d, nil
}

func (d *dcsPanel) String() string {
	bounds := d.Bounds()
	return fmt.Sprintf("DCS %dx%d %s on %s", bounds.Dx(), bounds.Dy(), d.config.Format, d.link)
}

func (d *dcsPanel) init() (err error) {
	if err = d.config.Timing.Validate(); err != nil {
		return
	}
	d.fb = pixel.NewARGB8888Image(d.config.Timing.Width, d.config.Timing.Height)
	d.frame = d.config.Timing.FramePeriod(d.config.PixelClock)

	var colmod byte = dcsPixel16
	if d.config.Format == pixel.FormatRGB888 {
		colmod = dcsPixel24
	}

	// reset the device.
	if err = d.link.Reset(gpio.High); err != nil {
		return
	}
	sleep(dcsResetPulse)
	if err = d.link.Reset(gpio.Low); err != nil {
		return
	}
	sleep(dcsResetPulse)
	if err = d.link.Reset(gpio.High); err != nil {
		return
	}
	sleep(dcsResetDelay)

	if err = d.link.Command(dcsSWRESET); err != nil {
		return
	}
	sleep(dcsResetDelay)
	if err = d.link.Command(dcsSLPOUT); err != nil {
		return
	}
	sleep(dcsSleepOutDelay)

	te := []byte{dcsTEOFF}
	if d.config.TE != nil {
		te = []byte{dcsTEON, 0x00} // V-blanking only
		if err = d.config.TE.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
			return
		}
	}

	if err = d.commands(
		[]byte{dcsCOLMOD, colmod},
		[]byte{dcsMADCTL, 0x00},
		te,
		[]byte{dcsWRDISBV, d.config.Brightness},
		[]byte{dcsWRCTRLD, dcsBrightnessCtrlOn | dcsDisplayDimming | dcsBacklightOn},
		[]byte{dcsDISPON},
	); err != nil {
		return
	}

	if d.config.Backlight != nil {
		return d.config.Backlight.Out(gpio.High)
	}
	return nil
}

func (d *dcsPanel) commands(commands ...[]byte) (err error) {
	for _, command := range commands {
		if err = d.link.Command(command[0], command[1:]...); err != nil {
			return
		}
	}
	return
}

func (d *dcsPanel) Close() error {
	err := d.Show(false)
	if d.config.TE != nil {
		_ = d.config.TE.Halt()
	}
	d.wg.Wait()
	if cerr := d.link.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *dcsPanel) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

func (d *dcsPanel) ColorModel() color.Model {
	return d.fb.ColorModel()
}

func (d *dcsPanel) Framebuffer() *pixel.ARGB8888Image {
	return d.fb
}

func (d *dcsPanel) Show(show bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if show {
		if err := d.commands([]byte{dcsSLPOUT}, []byte{dcsDISPON}); err != nil {
			return err
		}
		if d.config.Backlight != nil {
			return d.config.Backlight.Out(gpio.High)
		}
		return nil
	}

	if d.config.Backlight != nil {
		if err := d.config.Backlight.Out(gpio.Low); err != nil {
			return err
		}
	}
	return d.commands([]byte{dcsDISPOFF}, []byte{dcsSLPIN})
}

// setWindow selects the panel memory region written by the next RAMWR.
// The coordinates are inclusive.
func (d *dcsPanel) setWindow(x0, y0, x1, y1 int) error {
	return d.commands(
		[]byte{dcsCASET, byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}, // Column address
		[]byte{dcsPASET, byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}, // Page address
		[]byte{dcsRAMWR},                                                   // Write to RAM
	)
}

// Refresh writes the whole framebuffer to panel memory.
func (d *dcsPanel) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.fb.Bounds()
	if err := d.setWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1); err != nil {
		return err
	}

	var (
		err  error
		rows = max(1, 4096/(r.Dx()*d.config.Format.BytesPerPixel()))
	)
	for y := r.Min.Y; y < r.Max.Y && err == nil; y += rows {
		d.buf = d.buf[:0]
		d.fb.Rows(image.Rect(r.Min.X, y, r.Max.X, y+rows), func(_ int, row []uint32) {
			d.buf = pixel.AppendWords(d.buf, d.config.Format, row)
		})
		err = d.link.Data(d.buf...)
	}
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go d.awaitTearingEffect()
	return nil
}

func (d *dcsPanel) awaitTearingEffect() {
	defer d.wg.Done()
	if te := d.config.TE; te != nil {
		timeout := 2 * d.frame
		if timeout <= 0 {
			timeout = 100 * time.Millisecond
		}
		if !te.WaitForEdge(timeout) {
			log.Printf("panel: no tearing effect edge within %s", timeout)
		} else if debug {
			log.Printf("panel: tearing effect edge on %s", te)
		}
	}
	d.Notify()
}

// Halt implements conn.Resource.
func (d *dcsPanel) Halt() error {
	return d.Show(false)
}

// Draw implements display.Drawer. It paints src into the framebuffer and
// refreshes the panel; it is meant for one-shot use without a Refresher.
func (d *dcsPanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.fb, r, src, sp, draw.Src)
	return d.Refresh()
}

var _ display.Drawer = (*dcsPanel)(nil)
