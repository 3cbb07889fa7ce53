package core

// Decoder bit positions. curBit walks rxIdle -> -1 (start bit consumed) ->
// 0..6 (data bits) -> 7 (last data bit, byte completes) -> rxIdle.
const rxIdle int8 = 8

// rxBits drains all captured edges, reconstructs bit values from inter-edge
// cycle deltas and pushes completed bytes into the byte ring. Safe to call
// from any foreground code path and idempotent when no new edges are
// pending; never reentrant with itself. All cycle arithmetic is 32-bit
// wrapping interpreted through signed subtraction, so decoding stays
// correct across cycle-counter wraparound.
func (s *SoftUART) rxBits() {
	avail := s.edges.Len()
	if s.edges.TakeOverflow() {
		s.overflow = true
		recordRxEvent(EvtEdgeOverflow, MustClock().Ticks(), 0)
	}

	// A stop bit at the same level as the last data bit produces no
	// electrical transition, and without a following start bit the byte
	// would stall in the shifter forever. Once enough cycles have elapsed
	// to put us past the stop-bit boundary, synthesize the stop edge at
	// its expected cycle. The start-consumed state is excluded: a lone
	// noise edge with no data behind it must not grow into a phantom byte.
	if avail == 0 && s.curBit >= 0 && s.curBit < rxIdle {
		delta := MustClock().Ticks() - s.lastCycle
		expected := uint32(int32(10)-int32(s.curBit)) * s.bitCycles
		if delta >= expected {
			recordRxEvent(EvtStopSynth, s.lastCycle+expected, uint32(s.curBit))
			s.processEdge(packEdge(s.lastCycle+expected, !s.invert))
		}
	}

	for ; avail > 0; avail-- {
		ev, ok := s.edges.Pop()
		if !ok {
			break
		}
		s.processEdge(ev)
	}
}

// processEdge consumes the bit periods implied by one edge event, oldest
// timestamp first.
func (s *SoftUART) processEdge(ev uint32) {
	// The low bit carries the inverted electrical level; comparing against
	// the inversion flag yields the logical level. The timing error
	// introduced by the repurposed bit is negligible.
	level := (ev&1 != 0) == s.invert
	bit := int32(s.bitCycles)

	// Center the decision half a bit period after the edge. A negative
	// result means the edge came too soon to be a real bit boundary —
	// noise or sub-bit jitter — and is skipped without touching state.
	cycles := int32(ev-s.lastCycle) - bit/2
	if cycles < 0 {
		return
	}
	s.lastCycle = ev

	for {
		switch {
		case s.curBit >= -1 && s.curBit < 7:
			if cycles >= bit {
				// A run of identical-level bit periods produces only one
				// edge, at its start. Replicate the last shifted level for
				// every period the delta hides, capped at the data bits
				// remaining.
				hidden := cycles / bit
				if hidden > int32(7-s.curBit) {
					hidden = int32(7 - s.curBit)
				}
				lastBit := s.curByte & 0x80
				s.curByte >>= uint(hidden)
				if lastBit != 0 {
					s.curByte |= byte(0xff << uint(8-hidden))
				}
				s.curBit += int8(hidden)
				cycles -= hidden * bit
			}
			if s.curBit < 7 {
				s.curBit++
				cycles -= bit
				s.curByte >>= 1
				if level {
					s.curByte |= 0x80
				}
			}

		case s.curBit == 7:
			// Last data bit boundary: the byte is complete.
			s.curBit = rxIdle
			cycles -= bit
			if s.bytes.Put(s.curByte) {
				recordRxEvent(EvtByteDone, ev, uint32(s.curByte))
			} else {
				s.overflow = true
				recordRxEvent(EvtByteOverflow, ev, uint32(s.curByte))
			}
			// The shifter must restart at zero or hidden-bit replication
			// would smear the previous byte into the next one.
			s.curByte = 0

		default:
			// Idle: a transition to the active level is a start bit. A
			// rising edge here is the expected stop-bit edge and is
			// consumed with no further effect.
			if !level {
				s.curBit = -1
			}
			return
		}

		if cycles < 0 {
			return
		}
	}
}
