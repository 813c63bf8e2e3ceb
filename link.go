package panel

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Link errors.
var (
	ErrResetPin = errors.New("panel: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("panel: data/command (DC) GPIO pin is invalid")
)

// Link is the serial display link used to talk to the panel controller.
type Link interface {
	String() string

	// Close the link.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Command sends a command byte with optional arguments.
	Command(byte, ...byte) error

	// Data sends data bytes.
	Data(...byte) error
}

// SPIConfig describes the SPI link configuration.
type SPIConfig struct {
	// Port is the SPI port name in the periph registry, empty for the first port.
	Port string

	// Speed of the SPI clock.
	Speed physic.Frequency

	// Mode is the SPI mode.
	Mode spi.Mode

	// BatchSize is the largest single transfer in bytes.
	BatchSize int

	// DataLow inverts the data/command pin: data is sent with DC low.
	DataLow bool

	Reset gpio.PinOut
	DC    gpio.PinOut
	CS    gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Speed:     32 * physic.MegaHertz,
	Mode:      spi.Mode0,
	BatchSize: 4096,
}

type spiLink struct {
	c         spi.Conn
	port      spi.PortCloser
	reset     gpio.PinOut
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcKnown   bool
	cs        gpio.PinOut
	dataLow   bool
	batchSize int
}

// OpenSPI opens an SPI port from the periph registry and returns a Link on it.
func OpenSPI(config *SPIConfig) (Link, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}
	if config.Speed == 0 {
		config.Speed = DefaultSPIConfig.Speed
	}

	p, err := spireg.Open(config.Port)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(config.Speed, config.Mode, 8)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	l, err := newSPI(c, config)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	l.port = p
	return l, nil
}

// NewSPI returns a Link on an already connected SPI device.
func NewSPI(c spi.Conn, config *SPIConfig) (Link, error) {
	return newSPI(c, config)
}

func newSPI(c spi.Conn, config *SPIConfig) (*spiLink, error) {
	if config == nil {
		return nil, ErrResetPin
	}
	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultSPIConfig.BatchSize
	}
	if limits, ok := c.(conn.Limits); ok {
		if n := limits.MaxTxSize(); n > 0 && n < batchSize {
			batchSize = n
		}
	}

	return &spiLink{
		c:         c,
		reset:     config.Reset,
		dc:        config.DC,
		cs:        config.CS,
		dataLow:   config.DataLow,
		batchSize: batchSize,
	}, nil
}

func (l *spiLink) String() string {
	return fmt.Sprintf("SPI link %s", l.c)
}

func (l *spiLink) Close() error {
	if l.port == nil {
		return nil
	}
	return l.port.Close()
}

func (l *spiLink) Reset(level gpio.Level) error {
	return l.reset.Out(level)
}

func (l *spiLink) updateDC(level gpio.Level) error {
	if !l.dcKnown || l.dcLevel != level {
		if err := l.dc.Out(level); err != nil {
			return err
		}
		l.dcLevel = level
		l.dcKnown = true
	}
	return nil
}

func (l *spiLink) updateCS(level gpio.Level) error {
	if l.cs == nil || l.cs == gpio.INVALID {
		return nil
	}
	return l.cs.Out(level)
}

func (l *spiLink) Command(cmnd byte, data ...byte) (err error) {
	if err = l.updateCS(gpio.Low); err != nil {
		return
	}
	if err = l.updateDC(gpio.Level(l.dataLow)); err != nil {
		return
	}
	if err = l.c.Tx([]byte{cmnd}, nil); err != nil {
		return
	}
	if len(data) > 0 {
		if err = l.updateDC(gpio.Level(!l.dataLow)); err != nil {
			return
		}
		if err = l.writeChunked(data); err != nil {
			return
		}
	}
	return l.updateCS(gpio.High)
}

func (l *spiLink) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = l.updateDC(gpio.Level(!l.dataLow)); err != nil {
		return
	}
	if err = l.updateCS(gpio.Low); err != nil {
		return
	}
	if err = l.writeChunked(data); err != nil {
		return
	}
	return l.updateCS(gpio.High)
}

func (l *spiLink) writeChunked(data []byte) error {
	if debug && len(data) > l.batchSize {
		log.Printf("panel: write %d bytes of data in %d chunks", len(data), (len(data)+l.batchSize-1)/l.batchSize)
	}
	for len(data) > 0 {
		n := min(len(data), l.batchSize)
		if err := l.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
