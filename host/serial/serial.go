// Package serial opens the UART that carries diagnostic frames from the
// board to the host.
package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory pipes (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; the ST-Link virtual COM port runs at 115200
	Baud int

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration
}

// DefaultBaud is the firmware UART rate
const DefaultBaud = 115200

// DefaultConfig returns the configuration the firmware expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
