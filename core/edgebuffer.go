package core

import "sync/atomic"

// An edge event packs a 32-bit wrapping cycle timestamp and the electrical
// pin level into one word. Sub-cycle precision is unnecessary, so the
// timestamp's lowest bit is repurposed: it carries the inverted level.
//
// packEdge is called from interrupt context and must not allocate.
func packEdge(cycle uint32, level bool) uint32 {
	v := cycle | 1
	if level {
		v ^= 1
	}
	return v
}

// EdgeBuffer is a bounded single-producer/single-consumer ring of packed
// edge events. The producer is the pin-change interrupt handler, the
// consumer is the foreground timing decoder. Head and tail are each owned
// by exactly one side and published with atomic load/store; no
// compare-and-swap is needed. A full buffer drops the event and latches a
// sticky overflow flag instead of blocking, since the producer runs in
// interrupt context and cannot wait.
type EdgeBuffer struct {
	events   []uint32
	in       uint32 // write position, owned by the interrupt handler
	out      uint32 // read position, owned by the decoder
	overflow uint32 // sticky; set by producer, cleared by consumer
}

// NewEdgeBuffer returns an edge ring holding up to size-1 events.
func NewEdgeBuffer(size int) *EdgeBuffer {
	if size < 4 {
		size = 4
	}
	return &EdgeBuffer{events: make([]uint32, size)}
}

// Push stores one packed edge event. Interrupt context only. If the ring is
// full the event is dropped, the overflow flag is latched and Push returns
// false. Bounded time, no allocation.
func (b *EdgeBuffer) Push(ev uint32) bool {
	in := atomic.LoadUint32(&b.in)
	next := (in + 1) % uint32(len(b.events))
	if next == atomic.LoadUint32(&b.out) {
		atomic.StoreUint32(&b.overflow, 1)
		return false
	}
	atomic.StoreUint32(&b.events[in], ev) // 1) write data
	atomic.StoreUint32(&b.in, next)       // 2) publish
	return true
}

// Pop removes and returns the oldest event. Foreground context only.
func (b *EdgeBuffer) Pop() (uint32, bool) {
	out := atomic.LoadUint32(&b.out)
	if out == atomic.LoadUint32(&b.in) {
		return 0, false
	}
	ev := atomic.LoadUint32(&b.events[out])
	atomic.StoreUint32(&b.out, (out+1)%uint32(len(b.events)))
	return ev, true
}

// Len returns the number of events currently queued.
func (b *EdgeBuffer) Len() int {
	n := int(atomic.LoadUint32(&b.in)) - int(atomic.LoadUint32(&b.out))
	if n < 0 {
		n += len(b.events)
	}
	return n
}

// TakeOverflow returns whether an overflow occurred since the last call and
// clears the flag. Foreground context only.
func (b *EdgeBuffer) TakeOverflow() bool {
	if atomic.LoadUint32(&b.overflow) != 0 {
		atomic.StoreUint32(&b.overflow, 0)
		return true
	}
	return false
}

// Reset discards all queued events.
func (b *EdgeBuffer) Reset() {
	atomic.StoreUint32(&b.in, 0)
	atomic.StoreUint32(&b.out, 0)
}
