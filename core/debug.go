package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// RxEvent captures a decoder milestone for post-mortem analysis
type RxEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // Cycle counter at event
	Value     uint32 // Context-dependent value
}

// Event type codes
const (
	EvtEdgeOverflow = 1 // raw edge dropped, edge ring full
	EvtByteOverflow = 2 // decoded byte dropped, byte ring full
	EvtStopSynth    = 3 // stop-bit edge synthesized after timeout
	EvtByteDone     = 4 // byte assembled and queued
	EvtDirSwitch    = 5 // one-wire direction changed
)

const rxTraceSize = 32 // keep last 32 events for post-mortem

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// traceEnabled controls event capture. Off by default so the decode
	// hot path stays a single branch.
	traceEnabled bool

	rxTrace     [rxTraceSize]RxEvent
	rxTraceHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// Debug writes one message through the registered debug writer.
func Debug(msg string) {
	debugPrintln(msg)
}

// SetTraceEnabled enables or disables decoder event capture
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// recordRxEvent captures a decoder milestone in the trace ring. Called from
// foreground decode paths only; non-blocking and allocation-free.
func recordRxEvent(eventType uint8, clock, value uint32) {
	if !traceEnabled {
		return
	}
	idx := rxTraceHead
	rxTrace[idx] = RxEvent{EventType: eventType, Clock: clock, Value: value}
	rxTraceHead = (idx + 1) % rxTraceSize
}

// DumpRxTrace outputs the event trace ring, oldest first. Call after
// stopping time-critical work.
func DumpRxTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[softuart] === RX Trace Dump ===")
	start := rxTraceHead
	for i := uint8(0); i < rxTraceSize; i++ {
		idx := (start + i) % rxTraceSize
		evt := &rxTrace[idx]
		if evt.EventType == 0 {
			continue // empty slot
		}

		var name string
		switch evt.EventType {
		case EvtEdgeOverflow:
			name = "EDGE_OVERFLOW"
		case EvtByteOverflow:
			name = "BYTE_OVERFLOW"
		case EvtStopSynth:
			name = "STOP_SYNTH"
		case EvtByteDone:
			name = "BYTE_DONE"
		case EvtDirSwitch:
			name = "DIR_SWITCH"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[softuart] " + name +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[softuart] === End Dump ===")
}

// ClearRxTrace clears the trace ring
func ClearRxTrace() {
	for i := range rxTrace {
		rxTrace[i] = RxEvent{}
	}
	rxTraceHead = 0
}
