// Package monitor reads diagnostic frames sent by the firmware and turns
// them into events.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"godio/core"
	"godio/protocol"
)

// EventKind classifies a decoded frame
type EventKind int

const (
	EventUnknown EventKind = iota
	EventFault
	EventLog
	EventRegister
)

func (k EventKind) String() string {
	switch k {
	case EventFault:
		return "fault"
	case EventLog:
		return "log"
	case EventRegister:
		return "register"
	}
	return "unknown"
}

// Event is one decoded frame
type Event struct {
	Time     time.Time
	Sequence uint8
	Kind     EventKind

	// EventFault
	Fault core.Fault
	// EventLog
	Text string
	// EventRegister
	Address core.Address
	Value   uint32
	// EventUnknown
	MsgID uint32
}

func (e Event) String() string {
	switch e.Kind {
	case EventFault:
		return e.Fault.Error()
	case EventLog:
		return e.Text
	case EventRegister:
		return core.Hex32(uint32(e.Address)) + " = " + core.Hex32(e.Value)
	}
	return fmt.Sprintf("message %d", e.MsgID)
}

// Decode converts the payload of one frame to an Event
func Decode(msg *protocol.Message) (Event, error) {
	data := msg.Payload
	ev := Event{Sequence: msg.Sequence}

	id, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return ev, err
	}
	ev.MsgID = id

	switch id {
	case protocol.MsgFault:
		rec, err := protocol.DecodeFault(&data)
		if err != nil {
			return ev, err
		}
		ev.Kind = EventFault
		ev.Fault = core.Fault{
			Kind:  core.FaultKind(rec.Kind),
			Index: int(rec.Index),
			Port:  core.Port(rec.Port),
			Pin:   core.Pin(rec.Pin),
			Attr:  core.Attr(rec.Attr),
			Value: rec.Value,
		}
	case protocol.MsgLog:
		text, err := protocol.DecodeVLQString(&data)
		if err != nil {
			return ev, err
		}
		ev.Kind = EventLog
		ev.Text = text
	case protocol.MsgRegister:
		addr, value, err := protocol.DecodeRegister(&data)
		if err != nil {
			return ev, err
		}
		ev.Kind = EventRegister
		ev.Address = core.Address(addr)
		ev.Value = value
	default:
		return ev, fmt.Errorf("%w: %d", protocol.ErrUnknownMsg, id)
	}
	return ev, nil
}

// Stats summarizes what a Monitor has seen
type Stats struct {
	Events  map[EventKind]int
	Lost    uint32 // frames missing from the sequence
	Errors  uint32 // framing and CRC errors
	Dropped int    // events discarded because nobody was reading
	Invalid int    // frames with a payload that failed to decode
}

// Monitor reads frames from a port in a background goroutine
type Monitor struct {
	port io.ReadCloser

	// RetryEOF keeps reading after io.EOF. Serial ports with a read timeout
	// report an idle line as EOF.
	RetryEOF bool

	input  *protocol.FifoBuffer
	dec    *protocol.Decoder
	events chan Event

	mu    sync.Mutex
	stats Stats
	err   error
	done  chan struct{}
}

// New creates a Monitor reading from port
func New(port io.ReadCloser) *Monitor {
	m := &Monitor{
		port:   port,
		input:  protocol.NewFifoBuffer(protocol.MessageMax),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		stats:  Stats{Events: make(map[EventKind]int)},
	}
	m.dec = protocol.NewDecoder(m.dispatch)
	return m
}

// Events returns the event channel. It is closed when the monitor stops.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start launches the read loop. Cancelling ctx closes the port and stops
// the loop.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			m.port.Close()
		case <-m.done:
		}
	}()
	go m.readLoop(ctx)
}

// Wait blocks until the read loop has stopped and returns its error
func (m *Monitor) Wait() error {
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Stats returns a snapshot of the counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Events = maps.Clone(m.stats.Events)
	s.Lost = m.dec.Lost
	s.Errors = m.dec.Errors
	return s
}

func (m *Monitor) readLoop(ctx context.Context) {
	var err error
	defer func() {
		m.mu.Lock()
		m.err = err
		m.mu.Unlock()
		close(m.events)
		close(m.done)
	}()

	buffer := make([]byte, 256)
	for {
		n, rerr := m.port.Read(buffer)
		if n > 0 {
			m.receive(buffer[:n])
		}
		if rerr == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if errors.Is(rerr, io.EOF) {
			if m.RetryEOF {
				continue
			}
			return
		}
		err = rerr
		return
	}
}

func (m *Monitor) receive(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(data) > 0 {
		n := m.input.Write(data)
		data = data[n:]
		m.dec.Receive(m.input)
		if n == 0 {
			// A full buffer with no frame in it is garbage
			m.input.Reset()
		}
	}
}

// dispatch runs with m.mu held
func (m *Monitor) dispatch(msg *protocol.Message) {
	ev, err := Decode(msg)
	if err != nil {
		m.stats.Invalid++
		return
	}
	ev.Time = time.Now()
	m.stats.Events[ev.Kind]++

	select {
	case m.events <- ev:
	default:
		// Drop the oldest event to make room
		select {
		case <-m.events:
			m.stats.Dropped++
		default:
		}
		m.events <- ev
	}
}
