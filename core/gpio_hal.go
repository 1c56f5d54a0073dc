package core

// Address is an absolute address in the peripheral memory map.
type Address uint32

// Bus is the volatile 32-bit access path to peripheral registers.
// Platform-specific implementations decide what an address refers to:
// real memory-mapped I/O on the device, a simulated register file in tests.
type Bus interface {
	// Load reads the 32-bit word at addr
	Load(addr Address) uint32

	// Store writes the 32-bit word at addr
	Store(addr Address, value uint32)
}

// Global singleton used by core code.
var bus Bus = defaultBus()

// SetBus is called by target-specific code to register its bus.
func SetBus(b Bus) {
	bus = b
}

// MustBus returns the configured bus or panics if missing.
func MustBus() Bus {
	if bus == nil {
		panic("register bus not configured")
	}
	return bus
}

// Register is an opaque handle to one 32-bit hardware register.
// It holds no copy of the register contents; every call goes to the bus.
type Register struct {
	bus  Bus
	addr Address
}

// NewRegister returns a handle for addr on the given bus.
func NewRegister(b Bus, addr Address) Register {
	return Register{bus: b, addr: addr}
}

// Address returns the absolute address of the register
func (r Register) Address() Address {
	return r.addr
}

// Offset returns a handle for the register n words after r.
func (r Register) Offset(n int) Register {
	return Register{bus: r.bus, addr: r.addr + Address(4*n)}
}

// Get loads the register
func (r Register) Get() uint32 {
	return r.bus.Load(r.addr)
}

// Set stores value into the register
func (r Register) Set(value uint32) {
	r.bus.Store(r.addr, value)
}

// SetBits ORs mask into the register (read-modify-write)
func (r Register) SetBits(mask uint32) {
	r.Set(r.Get() | mask)
}

// ClearBits clears the bits of mask (read-modify-write)
func (r Register) ClearBits(mask uint32) {
	r.Set(r.Get() &^ mask)
}

// ToggleBits flips the bits of mask (read-modify-write)
func (r Register) ToggleBits(mask uint32) {
	r.Set(r.Get() ^ mask)
}

// HasBits reports whether any bit of mask is set
func (r Register) HasBits(mask uint32) bool {
	return r.Get()&mask != 0
}

// ReplaceBits clears mask and ORs in value in a single store.
// value is masked, so stray bits outside mask are never written.
func (r Register) ReplaceBits(mask, value uint32) {
	r.Set(r.Get()&^mask | value&mask)
}
