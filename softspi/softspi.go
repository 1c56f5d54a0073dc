// Package softspi is a bit-banged SPI master driven through the GPIO pin
// accessors. It satisfies tinygo.org/x/drivers.SPI so any TinyGo driver can
// talk to a peripheral wired to plain GPIO pins.
package softspi

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"godio/core"
)

var (
	ErrInvalidMode    = errors.New("invalid SPI mode")
	ErrLengthMismatch = errors.New("tx and rx buffer lengths must match")
)

// Line names one pin of the bus
type Line struct {
	Port core.Port
	Pin  core.Pin
}

// Config describes the wiring and timing of a bus
type Config struct {
	SCK  Line
	MOSI Line
	MISO Line

	// Mode is the SPI mode 0..3 (CPOL<<1 | CPHA)
	Mode uint8

	// Frequency in Hz; 0 runs as fast as the pins toggle
	Frequency uint32
}

// Bus is a software SPI master
type Bus struct {
	sck, mosi, miso Line
	cpol, cpha      bool
	halfPeriod      time.Duration
}

var _ drivers.SPI = (*Bus)(nil)

// New configures the bus pins and returns the bus with SCK at its idle level
func New(cfg Config) (*Bus, error) {
	if cfg.Mode > 3 {
		return nil, ErrInvalidMode
	}
	b := &Bus{
		sck:  cfg.SCK,
		mosi: cfg.MOSI,
		miso: cfg.MISO,
		cpol: cfg.Mode&0x2 != 0,
		cpha: cfg.Mode&0x1 != 0,
	}
	if cfg.Frequency > 0 {
		b.halfPeriod = time.Duration(500000000/cfg.Frequency) * time.Nanosecond
	}

	// Idle levels first so the pins come up quiet
	b.setClock(b.cpol)
	core.Write(b.mosi.Port, b.mosi.Pin, core.Low)

	core.Apply(b.PinTable())
	return b, nil
}

// PinTable returns the configuration entries for the bus pins
func (b *Bus) PinTable() core.ConfigTable {
	return core.ConfigTable{
		{Port: b.sck.Port, Pin: b.sck.Pin, Mode: core.ModeOutput, Speed: core.SpeedVeryHigh},
		{Port: b.mosi.Port, Pin: b.mosi.Pin, Mode: core.ModeOutput, Speed: core.SpeedVeryHigh},
		{Port: b.miso.Port, Pin: b.miso.Pin, Mode: core.ModeInput},
	}
}

// Tx transmits w while receiving into r. Either may be nil: a nil w sends
// zeros, a nil r discards what is received.
func (b *Bus) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return ErrLengthMismatch
	}

	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in := b.transferByte(out)
		if r != nil {
			r[i] = in
		}
	}
	return nil
}

// Transfer exchanges a single byte
func (b *Bus) Transfer(w byte) (byte, error) {
	return b.transferByte(w), nil
}

// transferByte shifts one byte MSB first
func (b *Bus) transferByte(w byte) byte {
	var rx byte
	for bit := 7; bit >= 0; bit-- {
		if !b.cpha {
			// Data valid before the leading edge, sampled on it
			b.setData(w&(1<<bit) != 0)
			b.delay()
			b.setClock(!b.cpol)
			if b.sample() {
				rx |= 1 << bit
			}
			b.delay()
			b.setClock(b.cpol)
		} else {
			// Data changes on the leading edge, sampled on the trailing one
			b.setClock(!b.cpol)
			b.setData(w&(1<<bit) != 0)
			b.delay()
			b.setClock(b.cpol)
			if b.sample() {
				rx |= 1 << bit
			}
			b.delay()
		}
	}
	return rx
}

func (b *Bus) setClock(level bool) {
	core.Write(b.sck.Port, b.sck.Pin, state(level))
}

func (b *Bus) setData(level bool) {
	core.Write(b.mosi.Port, b.mosi.Pin, state(level))
}

func (b *Bus) sample() bool {
	return core.Read(b.miso.Port, b.miso.Pin) == core.High
}

func (b *Bus) delay() {
	if b.halfPeriod > 0 {
		time.Sleep(b.halfPeriod)
	}
}

func state(level bool) core.PinState {
	if level {
		return core.High
	}
	return core.Low
}
