package core

import "errors"

var (
	ErrInvalidWidth  = errors.New("field width must be 1, 2 or 4")
	ErrFieldOverflow = errors.New("value does not fit field width")
)

// Field widths used by the GPIO configuration registers
const (
	WidthOutputType = 1
	WidthMode       = 2
	WidthSpeed      = 2
	WidthPull       = 2
	WidthFunction   = 4
)

// fieldPosition returns which 32-bit word of a multi-word register holds
// the field for pin, and the field's bit offset within that word.
// For widths 1 and 2 every pin fits in word 0. For width 4 pins 8-15 land
// in word 1 at offset (pin mod 8)*4, which is exactly AFRH.
func fieldPosition(pin Pin, width uint) (word int, shift uint) {
	perWord := 32 / width
	return int(uint(pin) / perWord), (uint(pin) % perWord) * width
}

func validWidth(width uint) bool {
	return width == 1 || width == 2 || width == 4
}

// FieldMask returns the mask covering pin's field within its word
func FieldMask(pin Pin, width uint) uint32 {
	_, shift := fieldPosition(pin, width)
	return (1<<width - 1) << shift
}

// EncodeField returns word with pin's field replaced by value.
// All bits outside the field are preserved; the field is cleared first,
// so its previous contents never leak into the result.
func EncodeField(word uint32, pin Pin, width uint, value uint32) uint32 {
	_, shift := fieldPosition(pin, width)
	mask := uint32(1<<width-1) << shift
	return word&^mask | (value<<shift)&mask
}

// DecodeField extracts pin's field from word
func DecodeField(word uint32, pin Pin, width uint) uint32 {
	_, shift := fieldPosition(pin, width)
	return (word >> shift) & (1<<width - 1)
}

// ApplyField writes value into pin's field of the register group starting
// at reg, as one clear-then-set update of the selected word.
func ApplyField(reg Register, pin Pin, width uint, value uint32) error {
	if !validWidth(width) {
		return ErrInvalidWidth
	}
	if !pin.Valid() {
		return &PinError{Op: "apply", Pin: pin, Err: ErrInvalidPin}
	}
	if value >= 1<<width {
		return ErrFieldOverflow
	}
	word, _ := fieldPosition(pin, width)
	target := reg.Offset(word)
	target.Set(EncodeField(target.Get(), pin, width, value))
	return nil
}

// ReadField returns pin's field from the register group starting at reg
func ReadField(reg Register, pin Pin, width uint) uint32 {
	word, _ := fieldPosition(pin, width)
	return DecodeField(reg.Offset(word).Get(), pin, width)
}

// Attr names one of the five per-pin configuration attributes
type Attr uint8

const (
	AttrMode Attr = iota
	AttrOutputType
	AttrSpeed
	AttrPull
	AttrFunction

	numAttrs
)

// attribute describes where an attribute lives and how a PinConfig value
// is encoded for it. limit is the number of valid encodings.
type attribute struct {
	name   string
	offset Address
	width  uint
	limit  uint32
	value  func(c *PinConfig) uint32
}

// Application order of the attributes for each table entry.
var attributes = [numAttrs]attribute{
	AttrMode: {
		name: "mode", offset: OffsetMODER, width: WidthMode, limit: 4,
		value: func(c *PinConfig) uint32 { return uint32(c.Mode) },
	},
	AttrOutputType: {
		name: "output_type", offset: OffsetOTYPER, width: WidthOutputType, limit: 2,
		value: func(c *PinConfig) uint32 { return uint32(c.OutputType) },
	},
	AttrSpeed: {
		name: "speed", offset: OffsetOSPEEDR, width: WidthSpeed, limit: 4,
		value: func(c *PinConfig) uint32 { return uint32(c.Speed) },
	},
	AttrPull: {
		name: "pull", offset: OffsetPUPDR, width: WidthPull, limit: 3,
		value: func(c *PinConfig) uint32 { return uint32(c.Pull) },
	},
	AttrFunction: {
		name: "function", offset: OffsetAFRL, width: WidthFunction, limit: 16,
		value: func(c *PinConfig) uint32 { return uint32(c.Function) },
	},
}

func (a Attr) String() string {
	if a < numAttrs {
		return attributes[a].name
	}
	return "Attr(" + itoa(int(a)) + ")"
}
