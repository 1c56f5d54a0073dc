// Package protocol implements the framed diagnostic channel between the
// firmware and host tools. Frames follow the Klipper block layout:
//
//	<len> <seq> <payload...> <crc16 hi> <crc16 lo> <0x7E>
//
// The payload is a VLQ message ID followed by VLQ-encoded arguments.
// Traffic is one way, firmware to host; there are no ACKs.
package protocol

// Version represents the diagnostic protocol version
const Version = "1.0.0"

// Protocol constants
const (
	MessageMax         = 512 // Maximum scratch buffer size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Message IDs carried in the first VLQ of a payload
const (
	MsgFault    = 1 // kind, index, port, pin, attr, value
	MsgLog      = 2 // text
	MsgRegister = 3 // address, value
)

// Message represents a parsed frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}
