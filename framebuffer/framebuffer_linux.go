package framebuffer

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/internal/ioctl"
	"github.com/BeatGlow/panel/pixel"
)

// From <linux/fb.h>
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
	fbioBlank          = 0x4611
	fbioWaitForVSync   = 0x4620

	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

var waitForVSync = ioctl.Pointer(ioctl.Write, (*uint32)(nil), fbioWaitForVSync)

type device struct {
	panel.Notifier
	name   string
	f      *os.File
	fd     uintptr
	info   fixScreenInfo
	screen varScreenInfo
	format format
	timing panel.Timing
	frame  time.Duration
	mem    []byte
	fb     *pixel.ARGB8888Image

	mu      sync.Mutex
	wg      sync.WaitGroup
	noVSync atomic.Bool
}

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
//
// When config carries a timing its resolution must match the video mode,
// otherwise the timing is read from the device.
func Open(name string, config *panel.Config) (panel.Display, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", panel.ErrInit, err)
	}

	d := &device{
		name: name,
		f:    f,
		fd:   f.Fd(),
	}
	if err = d.init(config); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", panel.ErrInit, name, err)
	}
	return d, nil
}

func (d *device) init(config *panel.Config) (err error) {
	if err = ioctl.Do(d.fd, fbioGetFScreenInfo, &d.info); err != nil {
		return
	}
	if err = ioctl.Do(d.fd, fbioGetVScreenInfo, &d.screen); err != nil {
		return
	}
	if d.format, err = parseFormat(&d.screen); err != nil {
		return
	}

	d.timing, d.frame = d.screen.timing()
	if config != nil && config.Timing != (panel.Timing{}) {
		if config.Timing.Width != d.timing.Width || config.Timing.Height != d.timing.Height {
			return fmt.Errorf("%w: %dx%d, device is %dx%d", ErrResolution,
				config.Timing.Width, config.Timing.Height, d.timing.Width, d.timing.Height)
		}
		d.timing = config.Timing
		if config.PixelClock > 0 {
			d.frame = d.timing.FramePeriod(config.PixelClock)
		}
	}
	if d.frame <= 0 {
		d.frame = defaultFramePeriod
	}

	if d.mem, err = syscall.Mmap(int(d.fd), 0, int(d.info.SmemLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED); err != nil {
		return
	}
	d.fb = pixel.NewARGB8888Image(d.timing.Width, d.timing.Height)

	if debug {
		log.Printf("framebuffer: %s %s %s, line %d bytes, frame %s", d.name, d.timing, d.format, d.info.LineLength, d.frame)
		log.Printf("framebuffer: %s controller timing %+v", d.name, d.timing.Accumulated())
	}
	return nil
}

func (d *device) String() string {
	return fmt.Sprintf("fbdev %s %dx%d %s", d.name, d.timing.Width, d.timing.Height, d.format)
}

func (d *device) Bounds() image.Rectangle {
	return d.fb.Bounds()
}

func (d *device) ColorModel() color.Model {
	return d.fb.ColorModel()
}

func (d *device) Framebuffer() *pixel.ARGB8888Image {
	return d.fb
}

// Close the framebuffer device.
func (d *device) Close() error {
	d.wg.Wait()
	if err := syscall.Munmap(d.mem); err != nil {
		return err
	}
	return d.f.Close()
}

// Show blanks or unblanks the screen.
func (d *device) Show(show bool) error {
	var blank uintptr = fbBlankPowerdown
	if show {
		blank = fbBlankUnblank
	}
	return ioctl.Call(d.fd, fbioBlank, blank)
}

// Refresh copies the back buffer to the device. The refresh completes on the
// next vertical sync.
func (d *device) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := image.Pt(int(d.screen.Xoffset), int(d.screen.Yoffset))
	d.format.encodeFrame(d.mem, int(d.info.LineLength), offset, d.fb)

	d.wg.Add(1)
	go d.awaitVSync()
	return nil
}

func (d *device) awaitVSync() {
	defer d.wg.Done()
	if !d.noVSync.Load() {
		var crtc uint32
		err := ioctl.Do(d.fd, waitForVSync, &crtc)
		if err == nil {
			d.Notify()
			return
		}
		// Not all drivers implement vsync, pace with the frame period instead.
		log.Printf("framebuffer: %s: %v, falling back to a %s frame period", d.name, err, d.frame)
		d.noVSync.Store(true)
	}
	time.Sleep(d.frame)
	d.Notify()
}

type fixScreenInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}
