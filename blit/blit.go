// Package blit copies rectangular blocks of pixels into a framebuffer.
//
// Copies go through a block-copy [Accelerator] when one is configured and
// fall back to a portable loop otherwise. Both paths produce a byte-exact
// copy: no color conversion, no blending, alpha is passed through.
package blit

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"time"

	"github.com/BeatGlow/panel/pixel"
)

var debug bool

func init() {
	debug = os.Getenv("PANEL_DEBUG") != ""
}

// Errors
var (
	ErrBounds         = errors.New("blit: region out of destination bounds")
	ErrShortSource    = errors.New("blit: source holds fewer pixels than the region")
	ErrConfig         = errors.New("blit: invalid accelerator configuration")
	ErrNotInitialized = errors.New("blit: accelerator not initialized")
	ErrLayer          = errors.New("blit: invalid layer")
	ErrBusy           = errors.New("blit: transfer in progress")
	ErrTimeout        = errors.New("blit: transfer timeout")
)

// DefaultTimeout is the time allowed for a single accelerated transfer.
const DefaultTimeout = 100 * time.Millisecond

// Blitter copies pixel blocks into ARGB8888 framebuffers.
//
// The zero value, as well as a nil *Blitter, uses the portable loop.
type Blitter struct {
	// Accel is the block-copy accelerator, nil selects the portable loop.
	Accel Accelerator

	// Timeout for each transfer, zero selects DefaultTimeout.
	Timeout time.Duration
}

// New returns a Blitter using accel.
func New(accel Accelerator) *Blitter {
	return &Blitter{Accel: accel, Timeout: DefaultTimeout}
}

// Copy writes the size.X×size.Y block of row-major words in src to dst with its
// top-left corner at at.
//
// A zero-area block is a no-op. The region must lie within dst, otherwise
// ErrBounds is returned and dst is not modified. Accelerator failures are
// returned; when the accelerator cannot be configured no pixel is written. A
// transfer that fails or times out is aborted before Copy returns, so dst may
// hold a partial copy but is not written to afterwards.
func (b *Blitter) Copy(dst *pixel.ARGB8888Image, at image.Point, src []uint32, size image.Point) error {
	if size.X < 0 || size.Y < 0 {
		return fmt.Errorf("%w: negative size %s", ErrBounds, size)
	}
	if size.X == 0 || size.Y == 0 {
		return nil
	}
	if n := size.X * size.Y; len(src) < n {
		return fmt.Errorf("%w: need %d, have %d", ErrShortSource, n, len(src))
	}
	r := image.Rectangle{Min: at, Max: at.Add(size)}
	if !r.In(dst.Rect) {
		return fmt.Errorf("%w: %s not in %s", ErrBounds, r, dst.Rect)
	}

	var (
		out    = dst.Pix[dst.PixOffset(at.X, at.Y):]
		offset = dst.Stride - size.X
	)
	if b == nil || b.Accel == nil {
		transfer(out, src, size.X, size.Y, dst.Stride, size.X)
		return nil
	}
	if debug {
		log.Printf("blit: copy %s to %s", size, r)
	}
	return b.run(&Config{
		Mode:         MemoryToMemory,
		ColorMode:    ARGB8888,
		OutputOffset: offset,
	}, src, out, size)
}

// CopyImage converts src to ARGB8888 and copies it to dst at at.
func (b *Blitter) CopyImage(dst *pixel.ARGB8888Image, at image.Point, src image.Image) error {
	return b.Copy(dst, at, pixel.Words(src), src.Bounds().Size())
}

// Fill sets every pixel of r in dst to c.
func (b *Blitter) Fill(dst *pixel.ARGB8888Image, r image.Rectangle, c color.Color) error {
	r = r.Canon()
	if r.Empty() {
		return nil
	}
	if !r.In(dst.Rect) {
		return fmt.Errorf("%w: %s not in %s", ErrBounds, r, dst.Rect)
	}

	var (
		out   = dst.Pix[dst.PixOffset(r.Min.X, r.Min.Y):]
		value = pixel.Pack(c)
	)
	if b == nil || b.Accel == nil {
		fill(out, value, r.Dx(), r.Dy(), dst.Stride)
		return nil
	}
	return b.run(&Config{
		Mode:         RegisterToMemory,
		ColorMode:    ARGB8888,
		OutputOffset: dst.Stride - r.Dx(),
		Color:        value,
	}, nil, out, r.Size())
}

func (b *Blitter) run(config *Config, src, dst []uint32, size image.Point) error {
	if err := b.Accel.Init(config); err != nil {
		return fmt.Errorf("blit: accelerator init: %w", err)
	}
	if config.Mode == MemoryToMemory {
		if err := b.Accel.ConfigLayer(Foreground); err != nil {
			return fmt.Errorf("blit: accelerator layer: %w", err)
		}
	}
	if err := b.Accel.Start(src, dst, size.X, size.Y); err != nil {
		return fmt.Errorf("blit: accelerator start: %w", err)
	}

	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if err := b.Accel.PollForTransfer(timeout); err != nil {
		// Stop the unit so it does not write into dst after we return.
		if aerr := b.Accel.Abort(); aerr != nil {
			return fmt.Errorf("blit: accelerator transfer: %w, abort: %w", err, aerr)
		}
		return fmt.Errorf("blit: accelerator transfer: %w", err)
	}
	return nil
}
