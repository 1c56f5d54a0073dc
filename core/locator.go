package core

// STM32F4 GPIO register offsets within one bank
const (
	OffsetMODER   Address = 0x00 // Mode register
	OffsetOTYPER  Address = 0x04 // Output type register
	OffsetOSPEEDR Address = 0x08 // Output speed register
	OffsetPUPDR   Address = 0x0C // Pull-up/pull-down register
	OffsetIDR     Address = 0x10 // Input data register
	OffsetODR     Address = 0x14 // Output data register
	OffsetAFRL    Address = 0x20 // Alternate function low register (pins 0-7)
	OffsetAFRH    Address = 0x24 // Alternate function high register (pins 8-15)
)

// BankRegister names one register of a bank
type BankRegister struct {
	Name   string
	Offset Address
}

// BankRegisters lists the registers of a bank in address order
var BankRegisters = [...]BankRegister{
	{"MODER", OffsetMODER},
	{"OTYPER", OffsetOTYPER},
	{"OSPEEDR", OffsetOSPEEDR},
	{"PUPDR", OffsetPUPDR},
	{"IDR", OffsetIDR},
	{"ODR", OffsetODR},
	{"AFRL", OffsetAFRL},
	{"AFRH", OffsetAFRH},
}

// Clock enable register for the GPIO banks (RCC_AHB1ENR)
const (
	RCCAHB1ENR Address = 0x40023830

	RCCGPIOAEN = 1 << 0
	RCCGPIOBEN = 1 << 1
	RCCGPIOCEN = 1 << 2
	RCCGPIODEN = 1 << 3
	RCCGPIOHEN = 1 << 7
)

// Bank base addresses on the AHB1 bus, indexed by Port
var bankBase = [NumPorts]Address{
	PortA: 0x40020000,
	PortB: 0x40020400,
	PortC: 0x40020800,
	PortD: 0x40020C00,
	PortH: 0x40021C00,
}

// Clock enable bit per bank in RCC_AHB1ENR
var bankClock = [NumPorts]uint32{
	PortA: RCCGPIOAEN,
	PortB: RCCGPIOBEN,
	PortC: RCCGPIOCEN,
	PortD: RCCGPIODEN,
	PortH: RCCGPIOHEN,
}

// Bank holds the register addresses of one GPIO port.
type Bank struct {
	Port       Port
	Base       Address
	Mode       Address
	OutputType Address
	Speed      Address
	Pull       Address
	AltLow     Address
	Output     Address
	Input      Address
}

// LookupBank resolves a port to its registers
func LookupBank(port Port) (Bank, error) {
	if !port.Valid() {
		return Bank{}, &PinError{Op: "lookup", Port: port, Err: ErrInvalidPort}
	}
	base := bankBase[port]
	return Bank{
		Port:       port,
		Base:       base,
		Mode:       base + OffsetMODER,
		OutputType: base + OffsetOTYPER,
		Speed:      base + OffsetOSPEEDR,
		Pull:       base + OffsetPUPDR,
		AltLow:     base + OffsetAFRL,
		Output:     base + OffsetODR,
		Input:      base + OffsetIDR,
	}, nil
}

// MustBank returns the bank for port or panics. An out-of-range port means
// corrupted configuration data.
func MustBank(port Port) Bank {
	b, err := LookupBank(port)
	if err != nil {
		panic(err.Error())
	}
	return b
}

// ClockEnableMask returns the RCC_AHB1ENR bits for the given ports
func ClockEnableMask(ports ...Port) uint32 {
	var mask uint32
	for _, p := range ports {
		MustBank(p)
		mask |= bankClock[p]
	}
	return mask
}

// Register returns a handle to the register at offset off within the bank
func (b Bank) Register(off Address) Register {
	return NewRegister(MustBus(), b.Base+off)
}

// OutputRegister returns the output-data register handle
func (b Bank) OutputRegister() Register {
	return NewRegister(MustBus(), b.Output)
}

// InputRegister returns the input-data register handle
func (b Bank) InputRegister() Register {
	return NewRegister(MustBus(), b.Input)
}

// ResetValues returns the documented reset value of every non-zero
// configuration register. Port A and B come out of reset with the debug
// pins (PA13-PA15, PB3-PB4) already in alternate-function mode.
func ResetValues() map[Address]uint32 {
	return map[Address]uint32{
		bankBase[PortA] + OffsetMODER:   0xA8000000,
		bankBase[PortA] + OffsetOSPEEDR: 0x0C000000,
		bankBase[PortA] + OffsetPUPDR:   0x64000000,
		bankBase[PortB] + OffsetMODER:   0x00000280,
		bankBase[PortB] + OffsetOSPEEDR: 0x000000C0,
		bankBase[PortB] + OffsetPUPDR:   0x00000100,
	}
}

func checkPin(pin Pin) {
	if !pin.Valid() {
		panic((&PinError{Op: "locate", Pin: pin, Err: ErrInvalidPin}).Error())
	}
}

// PinError records a failed lookup with the offending port or pin.
type PinError struct {
	Op   string
	Port Port
	Pin  Pin
	Err  error
}

func (e *PinError) Error() string {
	if e.Err == ErrInvalidPort {
		return e.Op + ": " + e.Err.Error() + " " + itoa(int(e.Port))
	}
	return e.Op + ": " + e.Err.Error() + " " + itoa(int(e.Pin))
}

func (e *PinError) Unwrap() error { return e.Err }
