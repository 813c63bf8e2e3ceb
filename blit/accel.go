package blit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Mode is the accelerator transfer mode.
type Mode uint8

// Transfer modes.
const (
	// MemoryToMemory copies the foreground layer to the output.
	MemoryToMemory Mode = iota

	// RegisterToMemory fills the output with Config.Color.
	RegisterToMemory
)

func (m Mode) String() string {
	switch m {
	case MemoryToMemory:
		return "memory-to-memory"
	case RegisterToMemory:
		return "register-to-memory"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// ColorMode is the pixel format of the accelerator input and output.
type ColorMode uint8

// Color modes.
const (
	ARGB8888 ColorMode = iota
)

// Layers.
const (
	Background = 0
	Foreground = 1

	numLayers = 2
)

// Config is the accelerator configuration for the next transfer.
type Config struct {
	Mode      Mode
	ColorMode ColorMode

	// OutputOffset is the number of pixels skipped after every output line.
	OutputOffset int

	// InputOffset is the number of pixels skipped after every foreground line.
	InputOffset int

	// Color is the fill word used in RegisterToMemory mode.
	Color uint32
}

func (c *Config) validate() error {
	if c.Mode > RegisterToMemory {
		return fmt.Errorf("%w: unsupported %s", ErrConfig, c.Mode)
	}
	if c.ColorMode != ARGB8888 {
		return fmt.Errorf("%w: unsupported color mode %d", ErrConfig, c.ColorMode)
	}
	if c.OutputOffset < 0 || c.InputOffset < 0 {
		return fmt.Errorf("%w: negative line offset", ErrConfig)
	}
	return nil
}

// Accelerator is a block-copy unit performing rectangular memory-to-memory
// pixel transfers without per-pixel work on the caller side.
type Accelerator interface {
	// Init configures the accelerator for the next transfers.
	Init(*Config) error

	// ConfigLayer applies the configuration to an input layer.
	ConfigLayer(layer int) error

	// Start a transfer of width×height pixels from src to dst. Start returns
	// once the transfer is accepted, completion is reported by PollForTransfer.
	Start(src, dst []uint32, width, height int) error

	// PollForTransfer waits for the transfer to finish, a negative timeout
	// waits forever.
	PollForTransfer(timeout time.Duration) error

	// Abort stops the transfer in progress. No pixel is written once Abort
	// returns and the accelerator accepts a new Init.
	Abort() error
}

// Software is an Accelerator that runs each transfer on its own goroutine.
//
// It follows the same programming model as a hardware block-copy unit, so it
// can stand in for one on hosts that lack it.
type Software struct {
	mu     sync.Mutex
	config *Config
	layers [numLayers]bool
	done   chan error
	stop   *atomic.Bool
}

// NewSoftware returns an uninitialized software accelerator.
func NewSoftware() *Software {
	return new(Software)
}

func (s *Software) String() string {
	return "software block-copy"
}

func (s *Software) Init(config *Config) error {
	if config == nil {
		return ErrConfig
	}
	if err := config.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrBusy
	}
	c := *config
	s.config = &c
	s.layers = [numLayers]bool{}
	return nil
}

func (s *Software) ConfigLayer(layer int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return ErrNotInitialized
	}
	if layer < 0 || layer >= numLayers {
		return fmt.Errorf("%w %d", ErrLayer, layer)
	}
	s.layers[layer] = true
	return nil
}

func (s *Software) Start(src, dst []uint32, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return ErrNotInitialized
	}
	if s.done != nil {
		return ErrBusy
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	var (
		config    = *s.config
		dstStride = width + config.OutputOffset
		srcStride = width + config.InputOffset
	)
	if span(width, height, dstStride) > len(dst) {
		return fmt.Errorf("%w: output holds %d pixels", ErrBounds, len(dst))
	}
	if config.Mode == MemoryToMemory {
		if !s.layers[Foreground] {
			return fmt.Errorf("%w %d not configured", ErrLayer, Foreground)
		}
		if span(width, height, srcStride) > len(src) {
			return fmt.Errorf("%w: foreground holds %d pixels", ErrShortSource, len(src))
		}
	}

	var (
		done = make(chan error, 1)
		stop = new(atomic.Bool)
	)
	s.done, s.stop = done, stop
	go func() {
		for y := 0; y < height && !stop.Load(); y++ {
			out := dst[y*dstStride:]
			switch config.Mode {
			case MemoryToMemory:
				transfer(out, src[y*srcStride:], width, 1, dstStride, srcStride)
			case RegisterToMemory:
				fill(out, config.Color, width, 1, dstStride)
			}
		}
		done <- nil
	}()
	return nil
}

func (s *Software) PollForTransfer(timeout time.Duration) (err error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	if timeout < 0 {
		err = <-done
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case err = <-done:
		case <-timer.C:
			return ErrTimeout
		}
	}

	s.mu.Lock()
	s.done, s.stop = nil, nil
	s.mu.Unlock()
	return
}

// Abort stops the transfer between two lines and waits for it to wind down.
func (s *Software) Abort() error {
	s.mu.Lock()
	done, stop := s.done, s.stop
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	stop.Store(true)
	err := <-done

	s.mu.Lock()
	s.done, s.stop = nil, nil
	s.mu.Unlock()
	return err
}

// span is the number of words touched by a transfer with the given line stride.
func span(width, height, stride int) int {
	return (height-1)*stride + width
}

func transfer(dst, src []uint32, width, height, dstStride, srcStride int) {
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+width], src[y*srcStride:y*srcStride+width])
	}
}

func fill(dst []uint32, value uint32, width, height, dstStride int) {
	for y := 0; y < height; y++ {
		row := dst[y*dstStride : y*dstStride+width]
		for i := range row {
			row[i] = value
		}
	}
}

var _ Accelerator = (*Software)(nil)
