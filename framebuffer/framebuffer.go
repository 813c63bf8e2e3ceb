// Package framebuffer drives the operating system's native framebuffer as a
// panel.
//
// This requires framebuffer device support in the operating system. The
// framebuffer is opened with [Open] and behaves like any other panel: drawing
// goes to an ARGB8888 back buffer, Refresh copies it to the device memory and
// the refresh completes on the next vertical sync.
package framebuffer

import (
	"encoding/binary"
	"errors"
	"image"
	"os"
	"time"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/pixel"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrFormat       = errors.New("framebuffer: unsupported pixel format")
	ErrResolution   = errors.New("framebuffer: resolution does not match the configured timing")
)

var (
	debug        = os.Getenv("PANEL_DEBUG") != ""
	nativeEndian = binary.NativeEndian
)

// defaultFramePeriod paces refreshes when neither vsync nor a pixel clock is
// available.
const defaultFramePeriod = 16 * time.Millisecond

// bitField describes the position of a color channel in a pixel.
type bitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// varScreenInfo contains device independent changeable information about a
// frame buffer device and a specific video mode.
type varScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha bitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32 // picoseconds
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

// format is a device pixel layout, stored in native byte order.
type format int

const (
	formatUnknown  format = iota
	formatXRGB8888        // red at bit 16
	formatXBGR8888        // red at bit 0
	formatRGB565          // red at bit 11
	formatBGR565          // red at bit 0
)

func (f format) String() string {
	switch f {
	case formatXRGB8888:
		return "XRGB8888"
	case formatXBGR8888:
		return "XBGR8888"
	case formatRGB565:
		return "RGB565"
	case formatBGR565:
		return "BGR565"
	default:
		return "unknown"
	}
}

func (f format) bytesPerPixel() int {
	switch f {
	case formatXRGB8888, formatXBGR8888:
		return 4
	case formatRGB565, formatBGR565:
		return 2
	default:
		return 0
	}
}

func (info *varScreenInfo) is(red, green, blue bitField) bool {
	return info.Red.Offset == red.Offset && info.Red.Length == red.Length &&
		info.Green.Offset == green.Offset && info.Green.Length == green.Length &&
		info.Blue.Offset == blue.Offset && info.Blue.Length == blue.Length
}

func parseFormat(info *varScreenInfo) (format, error) {
	if info == nil {
		return formatUnknown, errors.New("framebuffer: invalid screen info")
	}

	switch info.BitsPerPixel {
	case 16:
		switch {
		case info.is(bitField{Offset: 11, Length: 5}, bitField{Offset: 5, Length: 6}, bitField{Offset: 0, Length: 5}):
			return formatRGB565, nil
		case info.is(bitField{Offset: 0, Length: 5}, bitField{Offset: 5, Length: 6}, bitField{Offset: 11, Length: 5}):
			return formatBGR565, nil
		}

	case 32:
		switch {
		case info.is(bitField{Offset: 16, Length: 8}, bitField{Offset: 8, Length: 8}, bitField{Offset: 0, Length: 8}):
			return formatXRGB8888, nil
		case info.is(bitField{Offset: 0, Length: 8}, bitField{Offset: 8, Length: 8}, bitField{Offset: 16, Length: 8}):
			return formatXBGR8888, nil
		}
	}

	return formatUnknown, ErrFormat
}

// timing derives the panel timing and pixel clock from the video mode.
// Devices that do not report porches get the default porches around their
// resolution.
func (info *varScreenInfo) timing() (panel.Timing, time.Duration) {
	t := panel.Timing{
		HSync:       int(info.HsyncLen),
		HBackPorch:  int(info.LeftMargin),
		HFrontPorch: int(info.RightMargin),
		VSync:       int(info.VsyncLen),
		VBackPorch:  int(info.UpperMargin),
		VFrontPorch: int(info.LowerMargin),
		Width:       int(info.Xres),
		Height:      int(info.Yres),
	}
	if t.Validate() != nil {
		t = panel.DefaultTiming
		t.Width, t.Height = int(info.Xres), int(info.Yres)
	}

	if info.Pixclock == 0 {
		return t, defaultFramePeriod
	}
	picoseconds := uint64(t.TotalWidth()*t.TotalHeight()) * uint64(info.Pixclock)
	return t, time.Duration(picoseconds / 1000)
}

// encode converts a row of ARGB8888 words to the device format.
func (f format) encode(dst []byte, row []uint32) {
	switch f {
	case formatXRGB8888:
		for i, v := range row {
			nativeEndian.PutUint32(dst[i*4:], v)
		}
	case formatXBGR8888:
		for i, v := range row {
			nativeEndian.PutUint32(dst[i*4:], v&0xff00ff00 | v>>16&0xff | v&0xff<<16)
		}
	case formatRGB565:
		for i, v := range row {
			nativeEndian.PutUint16(dst[i*2:], pixel.ToRGB565(v))
		}
	case formatBGR565:
		for i, v := range row {
			c := pixel.ToRGB565(v)
			nativeEndian.PutUint16(dst[i*2:], c&0x07e0 | c>>11 | c&0x1f<<11)
		}
	}
}

// encodeFrame copies the back buffer to device memory laid out with stride
// bytes per line and the visible area at offset.
func (f format) encodeFrame(mem []byte, stride int, offset image.Point, fb *pixel.ARGB8888Image) {
	bpp := f.bytesPerPixel()
	fb.Rows(fb.Bounds(), func(y int, row []uint32) {
		i := (y-fb.Rect.Min.Y+offset.Y)*stride + offset.X*bpp
		if i < 0 || i+len(row)*bpp > len(mem) {
			return
		}
		f.encode(mem[i:], row)
	})
}
