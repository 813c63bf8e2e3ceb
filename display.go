// Package panel drives a command-mode display panel and keeps it refreshed.
//
// A [Display] owns a single ARGB8888 framebuffer. Refresh pushes the
// framebuffer to the panel: the call returns once the panel accepted the
// transfer, the end of the refresh is signalled later through the handler
// registered with OnRefreshComplete. The [Refresher] ties both ends together
// so that at most one refresh is outstanding at any time.
package panel

import (
	"errors"
	"image"
	"image/color"
	"os"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/panel/pixel"
)

var debug bool

func init() {
	debug = os.Getenv("PANEL_DEBUG") != ""
}

// Errors
var (
	ErrInit           = errors.New("panel: initialization failed")
	ErrRefreshPending = errors.New("panel: refresh already pending")
	ErrRefreshTimeout = errors.New("panel: refresh completion timed out")
)

// Display is a panel with a framebuffer.
type Display interface {
	String() string

	// Close the display driver.
	Close() error

	// Bounds is the display bounding box (dimensions).
	Bounds() image.Rectangle

	// ColorModel used by the framebuffer.
	ColorModel() color.Model

	// Framebuffer returns the pixels pushed to the panel by Refresh.
	Framebuffer() *pixel.ARGB8888Image

	// Show toggles the display on or off.
	Show(bool) error

	// Refresh starts pushing the framebuffer to the panel. It blocks until the
	// panel accepted the transfer; completion is reported asynchronously.
	Refresh() error

	// OnRefreshComplete registers the end-of-refresh handler. The handler may
	// be called from any goroutine.
	OnRefreshComplete(func())
}

// Config is the display configuration.
type Config struct {
	// Timing of the panel, the zero value selects DefaultTiming.
	Timing Timing

	// PixelClock of the panel, zero selects DefaultPixelClock.
	PixelClock physic.Frequency

	// Format is the pixel format on the display link.
	Format pixel.Format

	// Brightness level, zero selects full brightness.
	Brightness uint8

	// TE is the tearing effect input signalling the end of a refresh, optional.
	TE gpio.PinIn

	// Backlight pin, optional.
	Backlight gpio.PinOut
}

func (c *Config) setDefaults() {
	if c.Timing == (Timing{}) {
		c.Timing = DefaultTiming
	}
	if c.PixelClock == 0 {
		c.PixelClock = DefaultPixelClock
	}
	if c.Brightness == 0 {
		c.Brightness = 0xff
	}
}

// Notifier dispatches end-of-refresh notifications to a registered handler.
//
// Display implementations embed it to provide OnRefreshComplete.
type Notifier struct {
	mu sync.Mutex
	fn func()
}

// OnRefreshComplete registers fn, replacing the previous handler.
func (n *Notifier) OnRefreshComplete(fn func()) {
	n.mu.Lock()
	n.fn = fn
	n.mu.Unlock()
}

// Notify calls the registered handler, if any.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}
