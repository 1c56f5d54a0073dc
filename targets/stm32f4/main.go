//go:build stm32f4

package main

import (
	"machine"
	"time"

	"godio/core"
	"godio/softspi"
)

const loopPeriod = time.Millisecond

var reporter *core.FrameReporter

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})

	// Diagnostics leave the board as protocol frames
	reporter = core.NewFrameReporter(func(frame []byte) {
		machine.Serial.Write(frame)
	})
	core.SetFaultHandler(reporter.Fault)
	core.SetDebugWriter(reporter.Log)
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	// Clock the banks before touching them
	rcc := core.RegisterRead(core.RCCAHB1ENR)
	core.RegisterWrite(core.RCCAHB1ENR, rcc|core.ClockEnableMask(boardPorts...))

	// Losing the console pins would silence every frame after Init
	table := boardConfig
	if bad := boardConfig.Overrides(consolePins); len(bad) > 0 {
		reporter.Log("board table overrides console pins")
		table = nil
		for i, cfg := range boardConfig {
			if !contains(bad, i) {
				table = append(table, cfg)
			}
		}
	}
	core.Init(table)

	// Header pins start high
	for _, cfg := range table {
		if cfg.Mode == core.ModeOutput && cfg.Port == core.PortA {
			core.Write(cfg.Port, cfg.Pin, core.High)
		}
	}

	core.Write(latchPort, latchPin, core.High)
	spi, err := softspi.New(spiConfig)
	if err != nil {
		reporter.Log("spi: " + err.Error())
	}

	for _, port := range boardPorts {
		reporter.Bank(port)
	}
	reporter.Log("dio ready")

	buttonFlag := false
	for {
		// The button pulls PC13 low when pressed
		if core.Read(buttonPort, buttonPin) == core.Low {
			core.Write(ledPort, ledPin, core.High)
			core.RegisterWrite(gpioBODR, 0x00000000)
			buttonFlag = true
		} else {
			core.Write(ledPort, ledPin, core.Low)
			core.RegisterWrite(gpioBODR, 0x00000001)
		}

		core.Toggle(probePort, probePin)

		if spi != nil {
			mirrorHeader(spi)
		}

		if core.RegisterRead(gpioCIDR)&buttonMask == 0 && buttonFlag {
			core.DebugAsync("User Button is pressed")
			buttonFlag = false
		}

		time.Sleep(loopPeriod)
	}
}

// mirrorHeader shifts the PA0-PA7 output levels into the shift register
func mirrorHeader(spi *softspi.Bus) {
	header := byte(core.MustBank(core.PortA).OutputRegister().Get())
	core.Write(latchPort, latchPin, core.Low)
	spi.Transfer(header)
	core.Write(latchPort, latchPin, core.High)
}

func contains(idx []int, i int) bool {
	for _, v := range idx {
		if v == i {
			return true
		}
	}
	return false
}
