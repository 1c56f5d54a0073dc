//go:build stm32f4

package main

import (
	"godio/core"
	"godio/softspi"
)

// Board pin assignments (NUCLEO-F401RE)
const (
	ledPort    = core.PortA
	ledPin     = core.Pin(5)
	buttonPort = core.PortC
	buttonPin  = core.Pin(13)
	probePort  = core.PortA
	probePin   = core.Pin(0)
)

// Software SPI on the SPI2 header pins, driving a 74HC595 that mirrors
// the header outputs
const (
	latchPort = core.PortB
	latchPin  = core.Pin(12)
)

var spiConfig = softspi.Config{
	SCK:       softspi.Line{Port: core.PortB, Pin: 13},
	MISO:      softspi.Line{Port: core.PortB, Pin: 14},
	MOSI:      softspi.Line{Port: core.PortB, Pin: 15},
	Mode:      0,
	Frequency: 1000000,
}

// GPIOB_ODR and GPIOC_IDR, reached through the register escape hatch
const (
	gpioBODR core.Address = 0x40020414
	gpioCIDR core.Address = 0x40020810

	buttonMask = 1 << 13
)

// consolePins carry USART2, the ST-Link virtual COM port the diagnostic
// frames leave on. boardConfig must keep them as machine.Serial set them.
var consolePins = core.ConfigTable{
	{Port: core.PortA, Pin: 2, Mode: core.ModeAlternate, Speed: core.SpeedVeryHigh, Function: core.AF7},
	{Port: core.PortA, Pin: 3, Mode: core.ModeAlternate, Speed: core.SpeedVeryHigh, Function: core.AF7},
}

// boardConfig is applied once at boot. PA0, PA1 and PA4-PA7 drive the
// header pins, PA2/PA3 stay on USART2, PA5 is the green LED, PB0 is a
// spare output and PC13 is the blue user button, which has an external
// pull-up on the board. PB12 is the latch of the shift register on the
// software SPI bus.
var boardConfig = core.ConfigTable{
	{Port: core.PortA, Pin: 0, Mode: core.ModeOutput},
	{Port: core.PortA, Pin: 1, Mode: core.ModeOutput},
	consolePins[0],
	consolePins[1],
	{Port: core.PortA, Pin: 4, Mode: core.ModeOutput},
	{Port: core.PortA, Pin: 5, Mode: core.ModeOutput},
	{Port: core.PortA, Pin: 6, Mode: core.ModeOutput},
	{Port: core.PortA, Pin: 7, Mode: core.ModeOutput},
	{Port: core.PortB, Pin: 0, Mode: core.ModeOutput},
	{Port: latchPort, Pin: latchPin, Mode: core.ModeOutput},
	{Port: core.PortC, Pin: 13, Mode: core.ModeInput, Pull: core.PullNone},
}

// boardPorts are the banks boardConfig touches
var boardPorts = []core.Port{core.PortA, core.PortB, core.PortC}
