package protocol

import "errors"

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum message length")
	ErrUnknownMsg    = errors.New("unknown message ID")
)

// Encoder frames outgoing messages into an OutputBuffer.
// The sequence number advances with every frame so the receiver can count
// frames lost on the wire.
type Encoder struct {
	output  OutputBuffer
	seq     uint8
	scratch ScratchOutput
}

// NewEncoder creates an Encoder writing to output
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{
		output: output,
		seq:    MessageDest,
	}
}

// Sequence returns the sequence byte the next frame will carry
func (e *Encoder) Sequence() uint8 {
	return e.seq
}

// EncodeFrame encodes one frame whose payload is produced by frameData.
// Nothing is written to the output when the frame would be too large.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) error {
	e.scratch.Reset()
	frameData(&e.scratch)
	payload := e.scratch.Result()

	length := MessageHeaderSize + len(payload) + MessageTrailerSize
	if length > MessageLengthMax {
		return ErrFrameTooLarge
	}

	cursor := e.output.CurPosition()
	e.output.Output([]byte{uint8(length), e.seq})
	e.output.Output(payload)

	crc := CRC16(e.output.DataSince(cursor))
	e.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	e.seq = ((e.seq + 1) & MessageSeqMask) | MessageDest
	return nil
}

// SendMessage encodes a message ID followed by its arguments
func (e *Encoder) SendMessage(msgID uint32, args func(output OutputBuffer)) error {
	return e.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, msgID)
		if args != nil {
			args(output)
		}
	})
}

// FrameHandler receives every valid frame
type FrameHandler func(msg *Message)

// Decoder finds frames in a byte stream, checks them and hands them to a
// FrameHandler. Garbage between frames is skipped by resynchronizing on
// the sync byte.
type Decoder struct {
	synchronized bool
	nextSeq      uint8
	started      bool
	handler      FrameHandler

	// Lost counts frames skipped according to the sequence numbers
	Lost uint32
	// Errors counts framing and CRC errors
	Errors uint32
}

// NewDecoder creates a Decoder
func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{
		synchronized: true,
		handler:      handler,
	}
}

// Receive processes the data available in input and pops every consumed
// byte. An incomplete trailing frame is left in input for the next call.
func (d *Decoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synchronized {
			// Look for sync byte to resynchronize
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			d.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		// Need at least minimum message length
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		if d.started && seq != d.nextSeq {
			d.Lost += uint32((seq - d.nextSeq) & MessageSeqMask)
		}
		d.started = true
		d.nextSeq = ((seq + 1) & MessageSeqMask) | MessageDest

		msg := &Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
			CRC:      frameCRC,
		}
		data = data[msgLen:]

		if d.handler != nil {
			d.handler(msg)
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.Errors++
}

// FaultRecord is the wire form of a diagnostic fault
type FaultRecord struct {
	Kind  uint8
	Index int32
	Port  uint8
	Pin   uint8
	Attr  uint8
	Value uint32
}

// EncodeFault writes the arguments of a MsgFault message
func EncodeFault(output OutputBuffer, r FaultRecord) {
	EncodeVLQUint(output, uint32(r.Kind))
	EncodeVLQInt(output, r.Index)
	EncodeVLQUint(output, uint32(r.Port))
	EncodeVLQUint(output, uint32(r.Pin))
	EncodeVLQUint(output, uint32(r.Attr))
	EncodeVLQUint(output, r.Value)
}

// DecodeFault reads the arguments of a MsgFault message
func DecodeFault(data *[]byte) (FaultRecord, error) {
	var r FaultRecord
	var vals [4]uint32
	kind, err := DecodeVLQUint(data)
	if err != nil {
		return r, err
	}
	index, err := DecodeVLQInt(data)
	if err != nil {
		return r, err
	}
	for i := range vals {
		if vals[i], err = DecodeVLQUint(data); err != nil {
			return r, err
		}
	}
	r.Kind = uint8(kind)
	r.Index = index
	r.Port = uint8(vals[0])
	r.Pin = uint8(vals[1])
	r.Attr = uint8(vals[2])
	r.Value = vals[3]
	return r, nil
}

// EncodeRegister writes the arguments of a MsgRegister message
func EncodeRegister(output OutputBuffer, addr, value uint32) {
	EncodeVLQUint(output, addr)
	EncodeVLQUint(output, value)
}

// DecodeRegister reads the arguments of a MsgRegister message
func DecodeRegister(data *[]byte) (addr, value uint32, err error) {
	if addr, err = DecodeVLQUint(data); err != nil {
		return 0, 0, err
	}
	value, err = DecodeVLQUint(data)
	return addr, value, err
}
