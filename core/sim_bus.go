package core

import "sync"

// SimBus is a simulated register file used by host builds and tests.
// Unwritten addresses read as zero unless preset.
type SimBus struct {
	mu      sync.Mutex
	words   map[Address]uint32
	mirrors map[Address][]Address
	stores  int
}

// NewSimBus creates an empty simulated register file
func NewSimBus() *SimBus {
	return &SimBus{
		words:   make(map[Address]uint32),
		mirrors: make(map[Address][]Address),
	}
}

// NewResetSimBus creates a simulated register file holding the GPIO
// reset values of every bank.
func NewResetSimBus() *SimBus {
	s := NewSimBus()
	for addr, value := range ResetValues() {
		s.Preset(addr, value)
	}
	return s
}

func (s *SimBus) Load(addr Address) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[addr]
}

func (s *SimBus) Store(addr Address, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[addr] = value
	s.stores++
	for _, dst := range s.mirrors[addr] {
		s.words[dst] = value
	}
}

// Preset sets a word without counting it as a store or following mirrors
func (s *SimBus) Preset(addr Address, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[addr] = value
}

// Mirror wires src to dst: every later store to src is copied to dst.
// Mirroring a port's output-data register onto its input-data register
// models pins whose output is looped back to their input.
func (s *SimBus) Mirror(src, dst Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrors[src] = append(s.mirrors[src], dst)
}

// Stores returns the number of stores performed through Store
func (s *SimBus) Stores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}

// Snapshot returns a copy of every word written or preset so far
func (s *SimBus) Snapshot() map[Address]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Address]uint32, len(s.words))
	for addr, value := range s.words {
		out[addr] = value
	}
	return out
}
