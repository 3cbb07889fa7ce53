package core

import "testing"

// Test doubles for the hardware abstraction layer. The fake board models
// pin levels and pin-change interrupts, and can wire one pin's output to
// another pin's input so a transmit path feeds a receive path the way a
// physical loopback jumper would. The fake clock runs in simulated time:
// every Ticks read advances it one tick, and SleepMicros jumps it forward,
// so busy-wait transmit loops complete instantly and deterministically.

const (
	testRxPin GPIOPin = 2
	testTxPin GPIOPin = 3
)

type fakePinMode uint8

const (
	modeUnset fakePinMode = iota
	modeOutput
	modeInputPullUp
)

type fakePinState struct {
	level bool
	mode  fakePinMode
}

type fakeBoard struct {
	pins    map[GPIOPin]*fakePinState
	watch   map[GPIOPin]func()
	wire    map[GPIOPin]GPIOPin // driven pin -> mirrored input pin
	driven  map[GPIOPin]GPIOPin // reverse of wire
	history map[GPIOPin][]bool  // every SetPin invocation, in order
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		pins:    make(map[GPIOPin]*fakePinState),
		watch:   make(map[GPIOPin]func()),
		wire:    make(map[GPIOPin]GPIOPin),
		driven:  make(map[GPIOPin]GPIOPin),
		history: make(map[GPIOPin][]bool),
	}
}

// connect wires src's output to dst's input, like a loopback jumper.
func (f *fakeBoard) connect(src, dst GPIOPin) {
	f.wire[src] = dst
	f.driven[dst] = src
}

func (f *fakeBoard) pin(p GPIOPin) *fakePinState {
	st, ok := f.pins[p]
	if !ok {
		st = &fakePinState{}
		f.pins[p] = st
	}
	return st
}

func (f *fakeBoard) ValidPin(p GPIOPin) bool { return p != NoPin && p < 64 }

func (f *fakeBoard) ConfigureOutput(p GPIOPin) error {
	f.pin(p).mode = modeOutput
	return nil
}

func (f *fakeBoard) ConfigureInputPullUp(p GPIOPin) error {
	st := f.pin(p)
	st.mode = modeInputPullUp
	if src, ok := f.driven[p]; ok {
		st.level = f.pin(src).level // the wire wins over the pull-up
	} else {
		st.level = true
	}
	return nil
}

func (f *fakeBoard) SetPin(p GPIOPin, v bool) error {
	f.history[p] = append(f.history[p], v)
	st := f.pin(p)
	if st.level == v {
		return nil
	}
	st.level = v
	if h := f.watch[p]; h != nil {
		h()
	}
	if dst, ok := f.wire[p]; ok {
		dstSt := f.pin(dst)
		if dstSt.level != v {
			dstSt.level = v
			if h := f.watch[dst]; h != nil {
				h()
			}
		}
	}
	return nil
}

func (f *fakeBoard) ReadPin(p GPIOPin) bool { return f.pin(p).level }

func (f *fakeBoard) AttachPinChange(p GPIOPin, handler func()) error {
	f.watch[p] = handler
	return nil
}

func (f *fakeBoard) DetachPinChange(p GPIOPin) error {
	delete(f.watch, p)
	return nil
}

func (f *fakeBoard) setPinWrites(p GPIOPin) int { return len(f.history[p]) }

type fakeClock struct {
	now  uint32
	hz   uint32
	step uint32
}

func (c *fakeClock) Ticks() uint32 {
	c.now += c.step
	return c.now
}

func (c *fakeClock) Hz() uint32 { return c.hz }

func (c *fakeClock) SleepMicros(us uint32) {
	c.now += us * (c.hz / 1000000)
}

// newTestRig installs fresh fake drivers and returns them with an empty
// registry. The clock starts well away from zero so the decoder's first
// real edge is never mistaken for sub-bit jitter.
func newTestRig(t *testing.T) (*fakeBoard, *fakeClock, *Registry) {
	t.Helper()
	board := newFakeBoard()
	clk := &fakeClock{now: 1 << 20, hz: 80000000, step: 1}
	SetGPIODriver(board)
	SetIRQDriver(board)
	SetClock(clk)
	return board, clk, NewRegistry()
}

// newLoopbackLine builds a line whose transmit pin is wired back to its
// receive pin and starts it.
func newLoopbackLine(t *testing.T, board *fakeBoard, reg *Registry, baud uint32, invert bool) *SoftUART {
	t.Helper()
	board.connect(testTxPin, testRxPin)
	s := New(reg, Config{RxPin: testRxPin, TxPin: testTxPin, Invert: invert})
	if err := s.Begin(baud); err != nil {
		t.Fatalf("Begin(%d): %v", baud, err)
	}
	return s
}

// readAll drains every decoded byte the line will yield.
func readAll(s *SoftUART) []byte {
	var out []byte
	for s.Available() > 0 {
		b, err := s.ReadByte()
		if err != nil {
			break
		}
		out = append(out, b)
	}
	return out
}
