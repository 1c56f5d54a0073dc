package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// FaultKind classifies a reported condition
type FaultKind uint8

// Fault kinds
const (
	FaultInvalidValue FaultKind = 1 // Configuration attribute out of range, attribute skipped
	FaultInvalidState FaultKind = 2 // Write called with a level other than Low/High
)

// Fault is a condition reported on the diagnostic channel.
// Faults never stop the operation that raised them.
type Fault struct {
	Kind  FaultKind
	Index int // Table entry index, -1 outside of Apply
	Port  Port
	Pin   Pin
	Attr  Attr // Only meaningful for FaultInvalidValue
	Value uint32
}

func (k FaultKind) String() string {
	switch k {
	case FaultInvalidValue:
		return "INVALID_VALUE"
	case FaultInvalidState:
		return "INVALID_STATE"
	}
	return "UNKNOWN"
}

// Error formats the fault; Fault satisfies the error interface so it can be
// handed to code that collects errors.
func (f Fault) Error() string {
	s := "[DIO] " + f.Kind.String() + " " + PinName(f.Port, f.Pin)
	if f.Kind == FaultInvalidValue {
		s += " entry=" + itoa(f.Index) + " attr=" + f.Attr.String()
	}
	return s + " value=" + hex32(f.Value)
}

const (
	FaultRingSize = 16 // Keep last 16 faults for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active.
	// Faults are always written.
	debugEnabled bool = false

	// Fault ring buffer (non-blocking, for post-mortem)
	faultRing      [FaultRingSize]Fault
	faultRingHead  uint8
	faultRingCount uint32 // Total faults since last clear

	// faultHandler receives every fault after it is recorded
	faultHandler func(Fault)

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetFaultHandler registers a function called for every reported fault,
// e.g. a FrameReporter forwarding faults to the host. While a handler is
// set, faults are not also written to the debug writer. nil removes it.
func SetFaultHandler(handler func(Fault)) {
	faultHandler = handler
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message (non-blocking)
		}
	}
}

// ReportFault records f in the fault ring and passes it to the fault
// handler. Without a handler the fault is written to the debug writer as
// text instead.
func ReportFault(f Fault) {
	RecordFault(f)
	if faultHandler != nil {
		faultHandler(f)
		return
	}
	if debugPrintln != nil {
		debugPrintln(f.Error())
	}
}

// RecordFault stores a fault in the ring buffer without any output
func RecordFault(f Fault) {
	idx := faultRingHead
	faultRing[idx] = f
	faultRingHead = (idx + 1) % FaultRingSize
	faultRingCount++
}

// FaultCount returns the number of faults recorded since the last clear,
// including ones that have been overwritten in the ring.
func FaultCount() uint32 {
	return faultRingCount
}

// Faults returns the buffered faults, oldest first
func Faults() []Fault {
	n := faultRingCount
	if n > FaultRingSize {
		n = FaultRingSize
	}
	out := make([]Fault, 0, n)
	start := (uint32(faultRingHead) + FaultRingSize - n) % FaultRingSize
	for i := uint32(0); i < n; i++ {
		out = append(out, faultRing[(start+i)%FaultRingSize])
	}
	return out
}

// DumpFaults outputs the fault ring buffer (call on shutdown/error)
func DumpFaults() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[DIO] === Fault Ring Dump ===")
	debugPrintln("[DIO] Total faults: " + itoa(int(faultRingCount)))
	for _, f := range Faults() {
		debugPrintln(f.Error())
	}
	debugPrintln("[DIO] === End Dump ===")
}

// ClearFaults clears the fault buffer
func ClearFaults() {
	for i := range faultRing {
		faultRing[i] = Fault{}
	}
	faultRingHead = 0
	faultRingCount = 0
}
