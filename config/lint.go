package config

import (
	"fmt"

	"golang.org/x/exp/slices"

	"godio/core"
)

// Severity of a lint finding
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Finding is one problem reported by Lint
type Finding struct {
	Severity Severity
	Index    int
	Pin      string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: entry %d (%s): %s", f.Severity, f.Index, f.Pin, f.Message)
}

// debugPins are the SWD pins; reconfiguring them loses the debugger
var debugPins = []string{"PA13", "PA14"}

// consolePins carry USART2, the ST-Link virtual COM port of the Nucleo
// boards and the firmware's diagnostic channel
var consolePins = core.ConfigTable{
	{Port: core.PortA, Pin: 2, Mode: core.ModeAlternate, Function: core.AF7},
	{Port: core.PortA, Pin: 3, Mode: core.ModeAlternate, Function: core.AF7},
}

// Lint checks a table for entries that apply but probably do not do what
// the author meant. Findings are ordered by table index.
func Lint(table core.ConfigTable) []Finding {
	var findings []Finding

	shadowed := table.Duplicates()
	console := table.Overrides(consolePins)
	for i, cfg := range table {
		name := core.PinName(cfg.Port, cfg.Pin)
		add := func(sev Severity, msg string) {
			findings = append(findings, Finding{Severity: sev, Index: i, Pin: name, Message: msg})
		}

		if slices.Contains(shadowed, i) {
			add(Error, "overridden by a later entry for the same pin")
		}
		if slices.Contains(debugPins, name) && cfg.Mode != core.ModeAlternate {
			add(Warning, "debug pin leaves its SWD function")
		}
		if slices.Contains(console, i) {
			add(Warning, "console UART pin leaves USART2 (alternate AF7)")
		}
		if cfg.Function != core.AF0 && cfg.Mode != core.ModeAlternate {
			add(Warning, fmt.Sprintf("function %s has no effect in %s mode", cfg.Function, cfg.Mode))
		}
		if cfg.Mode == core.ModeAnalog && cfg.Pull != core.PullNone {
			add(Warning, "pull resistor on an analog pin")
		}
	}
	return findings
}

// Ports returns the distinct ports a table touches, in port order.
// The result feeds core.ClockEnableMask.
func Ports(table core.ConfigTable) []core.Port {
	ports := make([]core.Port, 0, len(table))
	for _, cfg := range table {
		ports = append(ports, cfg.Port)
	}
	slices.Sort(ports)
	return slices.Compact(ports)
}
