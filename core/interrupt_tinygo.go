//go:build tinygo

package core

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// mmioBus performs real volatile loads and stores on the device.
// This file is the only place an Address becomes a pointer.
type mmioBus struct{}

func (mmioBus) Load(addr Address) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Get()
}

func (mmioBus) Store(addr Address, value uint32) {
	(*volatile.Register32)(unsafe.Pointer(uintptr(addr))).Set(value)
}

func defaultBus() Bus {
	return mmioBus{}
}
