// Software serial line emulation over GPIO pins.
// Bit timing is derived from the platform cycle counter; reception is
// interrupt-driven edge capture decoded on demand from foreground code.
package core

import "errors"

var (
	// ErrNoFreeSlot means the instance registry is exhausted; End another
	// line before starting this one.
	ErrNoFreeSlot = errors.New("softuart: no free registry slot")

	// ErrBufferEmpty means no decoded byte is available right now.
	ErrBufferEmpty = errors.New("softuart: buffer empty")

	// ErrRxDisabled means the line has no usable receive pin.
	ErrRxDisabled = errors.New("softuart: receive direction not available")

	// ErrTxDisabled means the line has no usable transmit pin.
	ErrTxDisabled = errors.New("softuart: transmit direction not available")

	// ErrInvalidBaud is returned by Begin for a zero baud rate.
	ErrInvalidBaud = errors.New("softuart: invalid baud rate")
)

// DefaultBufSize is the decoded-byte ring capacity used when the Config
// leaves BufSize zero. The edge ring defaults to ten times the byte ring,
// since one byte produces up to ten edges.
const DefaultBufSize = 64

// Config describes a line at construction time. A pin that fails the
// GPIO driver's validity check silently disables that direction rather
// than failing construction.
type Config struct {
	RxPin GPIOPin // receive pin, or NoPin
	TxPin GPIOPin // transmit pin, or NoPin; equal to RxPin for one-wire

	// Invert selects inverted logic levels (idle low, start bit high).
	Invert bool

	// BufSize is the decoded byte ring capacity (default DefaultBufSize).
	BufSize int

	// EdgeBufSize is the raw edge ring capacity (default 10*BufSize).
	EdgeBufSize int
}

// SoftUART is one software-emulated serial line. All methods except the
// internal interrupt handler must be called from a single foreground
// context; the type provides no cross-goroutine synchronization beyond the
// interrupt/foreground handoff through the edge ring.
type SoftUART struct {
	reg  *Registry
	slot int

	rxPin       GPIOPin
	txPin       GPIOPin
	txEnablePin GPIOPin

	invert        bool
	oneWire       bool
	rxValid       bool
	txValid       bool
	txEnableValid bool

	bitCycles     uint32 // cycle-counter ticks per bit period
	ticksPerMicro uint32
	intTxEnabled  bool // interrupts stay enabled during transmit timing
	rxEnabled     bool

	edges *EdgeBuffer
	bytes *ByteBuffer

	// Decoder state. Foreground only, never reentrant.
	curBit    int8 // rxIdle, or -1 (start seen) through 7 (last data bit)
	curByte   uint8
	lastCycle uint32
	overflow  bool // sticky until Overflow() observes it

	// Transmit deadline accumulator, valid during one Write call.
	periodDeadline uint32
	txIRQState     irqState

	onReceive func(avail int)
}

// New constructs a line against the shared registry. The GPIO, IRQ and
// clock drivers must be registered before calling New.
func New(reg *Registry, cfg Config) *SoftUART {
	gpio := MustGPIO()

	s := &SoftUART{
		reg:         reg,
		slot:        -1,
		rxPin:       NoPin,
		txPin:       NoPin,
		txEnablePin: NoPin,
		invert:      cfg.Invert,
		oneWire:     cfg.RxPin == cfg.TxPin && cfg.RxPin != NoPin,
		curBit:      rxIdle,
	}

	if gpio.ValidPin(cfg.RxPin) {
		s.rxPin = cfg.RxPin
		bufSize := cfg.BufSize
		if bufSize <= 0 {
			bufSize = DefaultBufSize
		}
		edgeSize := cfg.EdgeBufSize
		if edgeSize <= 0 {
			edgeSize = 10 * bufSize
		}
		s.bytes = NewByteBuffer(bufSize)
		s.edges = NewEdgeBuffer(edgeSize)
		s.rxValid = true
	}
	if gpio.ValidPin(cfg.TxPin) {
		s.txPin = cfg.TxPin
		s.txValid = true
	}
	return s
}

// Begin starts the line at the given baud rate: reserves a registry slot on
// first start, derives the bit period from the cycle counter frequency,
// parks the pins at their idle levels and arms the receive interrupt.
// Calling Begin again on a started line only recomputes the bit timing.
func (s *SoftUART) Begin(baud uint32) error {
	if baud == 0 {
		return ErrInvalidBaud
	}
	if s.slot < 0 {
		s.slot = s.reg.acquire(s)
		if s.slot < 0 {
			return ErrNoFreeSlot
		}
	}

	clk := MustClock()
	s.bitCycles = clk.Hz() / baud
	s.ticksPerMicro = clk.Hz() / 1000000
	s.intTxEnabled = true

	gpio := MustGPIO()
	if s.rxValid {
		s.bytes.Reset()
		s.edges.Reset()
		_ = gpio.ConfigureInputPullUp(s.rxPin)
	}
	if s.txValid && !s.oneWire {
		_ = gpio.ConfigureOutput(s.txPin)
		_ = gpio.SetPin(s.txPin, !s.invert) // stop-bit level
	}

	if !s.rxEnabled {
		return s.enableRx(true)
	}
	return nil
}

// End stops the line: detaches the receive interrupt and releases the
// registry slot. Idempotent; the line may be started again with Begin.
func (s *SoftUART) End() {
	_ = s.enableRx(false)
	if s.slot >= 0 {
		s.reg.release(s.slot)
		s.slot = -1
	}
}

// BaudRate returns the effective baud rate, recomputed from the bit period.
func (s *SoftUART) BaudRate() uint32 {
	if s.bitCycles == 0 {
		return 0
	}
	return MustClock().Hz() / s.bitCycles
}

// SetTransmitEnablePin assigns a pin asserted high for the duration of each
// Write, for RS-485 style drivers. An invalid pin clears the assignment.
func (s *SoftUART) SetTransmitEnablePin(pin GPIOPin) {
	gpio := MustGPIO()
	if gpio.ValidPin(pin) {
		s.txEnableValid = true
		s.txEnablePin = pin
		_ = gpio.ConfigureOutput(pin)
		_ = gpio.SetPin(pin, false)
	} else {
		s.txEnableValid = false
		s.txEnablePin = NoPin
	}
}

// EnableIntTx selects whether global interrupts stay enabled during
// transmit timing. Disabling them trades interrupt latency elsewhere for
// cleaner output timing.
func (s *SoftUART) EnableIntTx(on bool) {
	s.intTxEnabled = on
}

// EnableTx switches the direction of a one-wire line. Enabling transmit
// detaches the receive interrupt and drives the shared pin at the stop-bit
// level; disabling reverts the pin to a pulled-up input and re-arms the
// interrupt. Only one direction is ever active on a one-wire line: both
// logical pins are the same physical pin.
func (s *SoftUART) EnableTx(on bool) {
	if !s.oneWire || !s.txValid {
		return
	}
	gpio := MustGPIO()
	if on {
		_ = s.enableRx(false)
		_ = gpio.ConfigureOutput(s.txPin)
		_ = gpio.SetPin(s.txPin, !s.invert)
	} else {
		_ = gpio.ConfigureOutput(s.txPin)
		_ = gpio.SetPin(s.txPin, !s.invert)
		_ = gpio.ConfigureInputPullUp(s.rxPin)
		_ = s.enableRx(true)
	}
	recordRxEvent(EvtDirSwitch, MustClock().Ticks(), boolToUint32(on))
}

// enableRx arms or disarms the receive edge interrupt.
func (s *SoftUART) enableRx(on bool) error {
	if !s.rxValid {
		return nil
	}
	irq := MustIRQ()
	var err error
	if on {
		s.curBit = rxIdle
		err = irq.AttachPinChange(s.rxPin, s.reg.handlerFor(s.slot))
	} else {
		err = irq.DetachPinChange(s.rxPin)
	}
	if err == nil {
		s.rxEnabled = on
	}
	return err
}

// handleEdge runs in interrupt context on every electrical transition of
// the receive pin: one counter read, one pin read, one ring push. It must
// not allocate, block, or call non-reentrant services. A full ring drops
// the event; the loss surfaces later through Overflow.
func (s *SoftUART) handleEdge() {
	cycle := MustClock().Ticks()
	level := MustGPIO().ReadPin(s.rxPin)
	s.edges.Push(packEdge(cycle, level))
}

// ReadByte returns the next decoded byte, running a decode pass first if
// the byte ring is empty. Never blocks; returns ErrBufferEmpty when no
// complete byte has arrived.
func (s *SoftUART) ReadByte() (byte, error) {
	if !s.rxValid {
		return 0, ErrRxDisabled
	}
	if s.bytes.Len() == 0 {
		s.rxBits()
		if s.bytes.Len() == 0 {
			return 0, ErrBufferEmpty
		}
	}
	b, _ := s.bytes.Get()
	return b, nil
}

// Read fills p with as many decoded bytes as are ready after a decode
// pass. A quiet line returns 0, nil rather than blocking, matching the
// machine package's non-blocking UART reads. Together with Buffered,
// ReadByte and Write this satisfies the TinyGo drivers UART contract.
func (s *SoftUART) Read(p []byte) (int, error) {
	if !s.rxValid {
		return 0, ErrRxDisabled
	}
	if len(p) == 0 {
		return 0, nil
	}
	s.rxBits()
	n := 0
	for n < len(p) {
		b, ok := s.bytes.Get()
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Peek returns the next decoded byte without consuming it.
func (s *SoftUART) Peek() (byte, error) {
	if !s.rxValid {
		return 0, ErrRxDisabled
	}
	s.rxBits()
	b, ok := s.bytes.Peek()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return b, nil
}

// Buffered returns the number of decoded bytes ready after a decode pass.
func (s *SoftUART) Buffered() int {
	if !s.rxValid {
		return 0
	}
	s.rxBits()
	return s.bytes.Len()
}

// Available returns the number of decoded bytes ready, forcing a decode
// pass. If that yields nothing it briefly yields the CPU — long enough for
// a partially received byte to finish on the wire — and retries once.
func (s *SoftUART) Available() int {
	if !s.rxValid {
		return 0
	}
	s.rxBits()
	avail := s.bytes.Len()
	if avail == 0 {
		MustClock().SleepMicros(s.microsFor(20 * s.bitCycles))
		s.rxBits()
		avail = s.bytes.Len()
	}
	return avail
}

// Flush discards everything buffered on the receive path: raw captured
// edges and decoded bytes.
func (s *SoftUART) Flush() {
	if !s.rxValid {
		return
	}
	s.bytes.Reset()
	s.edges.Reset()
}

// Overflow reports whether any raw edge or decoded byte was lost since the
// last call, and clears the flag.
func (s *SoftUART) Overflow() bool {
	res := s.overflow
	s.overflow = false
	return res
}

// OnReceive registers a byte-available callback, invoked from PerformWork
// in foreground context — never from the interrupt handler.
func (s *SoftUART) OnReceive(handler func(avail int)) {
	s.onReceive = handler
}

// PerformWork runs a decode pass and invokes the OnReceive callback when
// decoded bytes are waiting. Call it from the application's main loop.
func (s *SoftUART) PerformWork() {
	if s.onReceive == nil || !s.rxValid {
		return
	}
	s.rxBits()
	if avail := s.bytes.Len(); avail > 0 {
		s.onReceive(avail)
	}
}

// microsFor converts a cycle count to microseconds for the coarse waits.
func (s *SoftUART) microsFor(cycles uint32) uint32 {
	if s.ticksPerMicro == 0 {
		return 0
	}
	return cycles / s.ticksPerMicro
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
