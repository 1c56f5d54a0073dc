package core

import (
	"unicode/utf8"

	"godio/protocol"
)

// maxLogText keeps a MsgLog frame inside protocol.MessageLengthMax
const maxLogText = 56

// FrameReporter forwards diagnostics to a host as protocol frames.
// Wire it up with SetFaultHandler(r.Fault) and SetDebugWriter(r.Log).
type FrameReporter struct {
	out   *protocol.ScratchOutput
	enc   *protocol.Encoder
	write func([]byte)
}

// NewFrameReporter creates a reporter that hands each encoded frame to write
// (typically the UART or USB CDC write function of the target).
func NewFrameReporter(write func([]byte)) *FrameReporter {
	out := protocol.NewScratchOutput()
	return &FrameReporter{
		out:   out,
		enc:   protocol.NewEncoder(out),
		write: write,
	}
}

// Fault sends a MsgFault frame
func (r *FrameReporter) Fault(f Fault) {
	rec := protocol.FaultRecord{
		Kind:  uint8(f.Kind),
		Index: int32(f.Index),
		Port:  uint8(f.Port),
		Pin:   uint8(f.Pin),
		Attr:  uint8(f.Attr),
		Value: f.Value,
	}
	r.send(protocol.MsgFault, func(output protocol.OutputBuffer) {
		protocol.EncodeFault(output, rec)
	})
}

// Log sends a MsgLog frame. Long messages are truncated on a rune boundary.
func (r *FrameReporter) Log(msg string) {
	if len(msg) > maxLogText {
		cut := maxLogText
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	r.send(protocol.MsgLog, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQString(output, msg)
	})
}

// Bank sends one MsgRegister frame per configuration and data register
// of port, giving the host a snapshot of the pin configuration.
func (r *FrameReporter) Bank(port Port) {
	bank := MustBank(port)
	b := MustBus()
	for _, reg := range BankRegisters {
		addr := bank.Base + reg.Offset
		value := b.Load(addr)
		r.send(protocol.MsgRegister, func(output protocol.OutputBuffer) {
			protocol.EncodeRegister(output, uint32(addr), value)
		})
	}
}

func (r *FrameReporter) send(msgID uint32, args func(output protocol.OutputBuffer)) {
	r.out.Reset()
	if err := r.enc.SendMessage(msgID, args); err != nil {
		return
	}
	if r.write != nil {
		r.write(r.out.Result())
	}
}
