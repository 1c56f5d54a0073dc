//go:build linux

// Package devmem maps physical memory through /dev/mem so the pin engine
// can drive real GPIO registers from Linux, for example on an STM32MP1
// whose Cortex-A side sees the same GPIO block at a different address.
package devmem

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"godio/core"
)

// DefaultDevice is the physical memory device
const DefaultDevice = "/dev/mem"

var ErrOutOfWindow = errors.New("address outside mapped window")

// Window maps size bytes of physical memory starting at Phys so that they
// appear at the register addresses starting at Base
type Window struct {
	Phys uint64
	Base core.Address
	Size int
}

// Mem is a core.Bus over an mmap'd window
type Mem struct {
	file   *os.File
	data   []byte
	skew   int // offset of Phys within the first mapped page
	window Window
}

// Open maps a window of device (usually /dev/mem)
func Open(device string, w Window) (*Mem, error) {
	if w.Size <= 0 || w.Size%4 != 0 || w.Base%4 != 0 {
		return nil, fmt.Errorf("devmem: invalid window size %d at %#x", w.Size, uint32(w.Base))
	}

	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("devmem: %w", err)
	}

	page := uint64(unix.Getpagesize())
	start := w.Phys &^ (page - 1)
	skew := int(w.Phys - start)

	data, err := unix.Mmap(int(f.Fd()), int64(start), skew+w.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("devmem: mmap %#x: %w", w.Phys, err)
	}

	return &Mem{file: f, data: data, skew: skew, window: w}, nil
}

// Window returns the mapping
func (m *Mem) Window() Window {
	return m.window
}

// Contains reports whether addr is inside the window
func (m *Mem) Contains(addr core.Address) bool {
	return addr >= m.window.Base && int(addr-m.window.Base) < m.window.Size
}

// word returns the mapped 32-bit cell for addr; panics outside the window
func (m *Mem) word(addr core.Address) *uint32 {
	if !m.Contains(addr) || addr%4 != 0 {
		panic(fmt.Sprintf("devmem: %s: %v", core.Hex32(uint32(addr)), ErrOutOfWindow))
	}
	off := m.skew + int(addr-m.window.Base)
	return (*uint32)(unsafe.Pointer(&m.data[off]))
}

// Load performs a single 32-bit read
func (m *Mem) Load(addr core.Address) uint32 {
	return atomic.LoadUint32(m.word(addr))
}

// Store performs a single 32-bit write
func (m *Mem) Store(addr core.Address, value uint32) {
	atomic.StoreUint32(m.word(addr), value)
}

// Close unmaps the window
func (m *Mem) Close() error {
	var err error
	if m.data != nil {
		err = unix.Munmap(m.data)
		m.data = nil
	}
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}
