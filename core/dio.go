// Digital I/O driver
// Applies a declarative pin configuration table to the GPIO configuration
// registers and provides read, write and toggle of individual pins.
package core

// PinConfig is one row of the configuration table.
// Rows are built once, at build time, and never modified.
type PinConfig struct {
	Port       Port
	Pin        Pin
	Mode       PinMode
	OutputType OutputType
	Speed      Speed
	Pull       PullMode
	Function   AltFunc
}

// ConfigTable is the ordered configuration of every pin the application uses.
// Entries are independent of each other. When two entries name the same
// (Port, Pin), the later entry wins: attributes are applied in table order,
// so the later entry's writes overwrite the earlier ones.
type ConfigTable []PinConfig

// Duplicates returns the indices of entries that are shadowed by a later
// entry for the same (Port, Pin).
func (t ConfigTable) Duplicates() []int {
	var shadowed []int
	seen := make(map[uint16]bool, len(t))
	for i := len(t) - 1; i >= 0; i-- {
		key := uint16(t[i].Port)<<8 | uint16(t[i].Pin)
		if seen[key] {
			shadowed = append(shadowed, i)
			continue
		}
		seen[key] = true
	}
	// Report in table order
	for l, r := 0, len(shadowed)-1; l < r; l, r = l+1, r-1 {
		shadowed[l], shadowed[r] = shadowed[r], shadowed[l]
	}
	return shadowed
}

// Overrides returns the indices of entries that name a pin of keep but
// would leave it in a different mode or alternate function. keep lists pins
// another driver owns, such as the console UART.
func (t ConfigTable) Overrides(keep ConfigTable) []int {
	var idx []int
	for i, cfg := range t {
		for _, k := range keep {
			if cfg.Port == k.Port && cfg.Pin == k.Pin && (cfg.Mode != k.Mode || cfg.Function != k.Function) {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

// Init configures the GPIO peripheral from table.
// PRE-CONDITION: the clocks of every port in table are enabled.
func Init(table ConfigTable) {
	Apply(table)
}

// Apply writes every entry of table to the hardware, in table order.
// All five attributes of an entry are written before the next entry starts.
// An attribute holding an invalid value is skipped, its register is left
// untouched and a FaultInvalidValue is reported; the rest of the entry and
// the rest of the table are still applied.
// An invalid port or pin panics.
func Apply(table ConfigTable) {
	for i := range table {
		applyEntry(i, &table[i])
	}
}

func applyEntry(index int, c *PinConfig) {
	bank := MustBank(c.Port)
	checkPin(c.Pin)

	b := MustBus()
	for a := Attr(0); a < numAttrs; a++ {
		attr := &attributes[a]
		value := attr.value(c)
		if value >= attr.limit {
			ReportFault(Fault{
				Kind:  FaultInvalidValue,
				Index: index,
				Port:  c.Port,
				Pin:   c.Pin,
				Attr:  a,
				Value: value,
			})
			continue
		}
		// Cannot fail: width, pin and value were checked above
		_ = ApplyField(NewRegister(b, bank.Base+attr.offset), c.Pin, attr.width, value)
	}
}

// ReadConfig decodes the current hardware configuration of one pin.
func ReadConfig(port Port, pin Pin) PinConfig {
	bank := MustBank(port)
	checkPin(pin)

	field := func(a Attr) uint32 {
		attr := &attributes[a]
		return ReadField(bank.Register(attr.offset), pin, attr.width)
	}
	return PinConfig{
		Port:       port,
		Pin:        pin,
		Mode:       PinMode(field(AttrMode)),
		OutputType: OutputType(field(AttrOutputType)),
		Speed:      Speed(field(AttrSpeed)),
		Pull:       PullMode(field(AttrPull)),
		Function:   AltFunc(field(AttrFunction)),
	}
}

// Read returns the level present on a pin, from the input-data register.
// On pins configured as output or analog the result is whatever the
// hardware reports on the input line.
func Read(port Port, pin Pin) PinState {
	bank := MustBank(port)
	checkPin(pin)
	if bank.InputRegister().HasBits(1 << pin) {
		return High
	}
	return Low
}

// Write sets or clears one bit of the output-data register.
// The pin only drives the level if it is configured as an output.
// Any state other than Low or High is reported and ignored.
func Write(port Port, pin Pin, state PinState) {
	bank := MustBank(port)
	checkPin(pin)
	switch state {
	case High:
		bank.OutputRegister().SetBits(1 << pin)
	case Low:
		bank.OutputRegister().ClearBits(1 << pin)
	default:
		ReportFault(Fault{
			Kind:  FaultInvalidState,
			Index: -1,
			Port:  port,
			Pin:   pin,
			Value: uint32(state),
		})
	}
}

// Toggle flips one bit of the output-data register.
// Two toggles restore the previous level. The update is a
// read-modify-write and is not atomic: see Critical.
func Toggle(port Port, pin Pin) {
	bank := MustBank(port)
	checkPin(pin)
	bank.OutputRegister().ToggleBits(1 << pin)
}

// RegisterWrite stores value at an absolute address.
//
// UNSAFE: no validation of any kind is performed. The caller is
// responsible for the address being a valid, aligned register.
func RegisterWrite(addr Address, value uint32) {
	MustBus().Store(addr, value)
}

// RegisterRead loads the word at an absolute address.
//
// UNSAFE: see RegisterWrite.
func RegisterRead(addr Address) uint32 {
	return MustBus().Load(addr)
}
