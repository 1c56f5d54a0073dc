package core

import "errors"

// Port identifies one GPIO bank
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortH

	NumPorts = 5
)

// Pin is a bit position within a port, 0..15
type Pin uint8

// PinsPerPort is the number of pins in one bank
const PinsPerPort = 16

// PinState is the logic level of a pin
type PinState uint8

const (
	Low  PinState = 0
	High PinState = 1
)

// PinMode selects the electrical mode (2 bits per pin in MODER)
type PinMode uint8

const (
	ModeInput PinMode = iota
	ModeOutput
	ModeAlternate
	ModeAnalog
)

// OutputType selects the output driver (1 bit per pin in OTYPER)
type OutputType uint8

const (
	PushPull OutputType = iota
	OpenDrain
)

// Speed selects the output slew rate (2 bits per pin in OSPEEDR)
type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
	SpeedVeryHigh
)

// PullMode selects the internal resistor (2 bits per pin in PUPDR).
// Encoding 3 is reserved by the hardware and never written.
type PullMode uint8

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

// AltFunc is the alternate-function selector AF0..AF15 (4 bits per pin in AFRL/AFRH)
type AltFunc uint8

const (
	AF0 AltFunc = iota
	AF1
	AF2
	AF3
	AF4
	AF5
	AF6
	AF7
	AF8
	AF9
	AF10
	AF11
	AF12
	AF13
	AF14
	AF15
)

var (
	ErrInvalidPort = errors.New("invalid port")
	ErrInvalidPin  = errors.New("invalid pin")
)

var portNames = [NumPorts]string{"A", "B", "C", "D", "H"}

var (
	modeNames  = [...]string{"input", "output", "alternate", "analog"}
	typeNames  = [...]string{"push_pull", "open_drain"}
	speedNames = [...]string{"low", "medium", "high", "very_high"}
	pullNames  = [...]string{"none", "pull_up", "pull_down"}
)

// Valid reports whether p names a configured bank
func (p Port) Valid() bool { return p < NumPorts }

// Valid reports whether p fits in a 16-pin bank
func (p Pin) Valid() bool { return p < PinsPerPort }

func (p Port) String() string {
	if !p.Valid() {
		return "Port(" + itoa(int(p)) + ")"
	}
	return portNames[p]
}

func (s PinState) String() string {
	switch s {
	case Low:
		return "low"
	case High:
		return "high"
	}
	return "PinState(" + itoa(int(s)) + ")"
}

func (m PinMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "PinMode(" + itoa(int(m)) + ")"
}

func (t OutputType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "OutputType(" + itoa(int(t)) + ")"
}

func (s Speed) String() string {
	if int(s) < len(speedNames) {
		return speedNames[s]
	}
	return "Speed(" + itoa(int(s)) + ")"
}

func (p PullMode) String() string {
	if int(p) < len(pullNames) {
		return pullNames[p]
	}
	return "PullMode(" + itoa(int(p)) + ")"
}

func (f AltFunc) String() string {
	if f <= AF15 {
		return "af" + itoa(int(f))
	}
	return "AltFunc(" + itoa(int(f)) + ")"
}

// PinName formats a (port, pin) pair the way board schematics do: "PA5"
func PinName(port Port, pin Pin) string {
	return "P" + port.String() + itoa(int(pin))
}

// ParsePin parses a pin name such as "PA5" or "pc13"
func ParsePin(name string) (Port, Pin, error) {
	if len(name) < 3 || (name[0] != 'P' && name[0] != 'p') {
		return 0, 0, ErrInvalidPin
	}
	letter := name[1]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	port := Port(NumPorts)
	for i, n := range portNames {
		if n[0] == letter {
			port = Port(i)
			break
		}
	}
	if !port.Valid() {
		return 0, 0, ErrInvalidPort
	}
	n := 0
	digits := name[2:]
	if len(digits) > 2 {
		return 0, 0, ErrInvalidPin
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, 0, ErrInvalidPin
		}
		n = n*10 + int(c-'0')
	}
	if n >= PinsPerPort {
		return 0, 0, ErrInvalidPin
	}
	return port, Pin(n), nil
}

// ParsePinMode parses the external spelling of a PinMode
func ParsePinMode(s string) (PinMode, bool) {
	i, ok := lookupName(modeNames[:], s)
	return PinMode(i), ok
}

// ParseOutputType parses the external spelling of an OutputType
func ParseOutputType(s string) (OutputType, bool) {
	i, ok := lookupName(typeNames[:], s)
	return OutputType(i), ok
}

// ParseSpeed parses the external spelling of a Speed
func ParseSpeed(s string) (Speed, bool) {
	i, ok := lookupName(speedNames[:], s)
	return Speed(i), ok
}

// ParsePullMode parses the external spelling of a PullMode
func ParsePullMode(s string) (PullMode, bool) {
	i, ok := lookupName(pullNames[:], s)
	return PullMode(i), ok
}

// ParseAltFunc parses "af0".."af15"
func ParseAltFunc(s string) (AltFunc, bool) {
	for f := AF0; f <= AF15; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

func lookupName(names []string, s string) (int, bool) {
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}
