package core

// Write drives the transmit pin with correctly timed levels for every byte
// in p: one start bit, 8 data bits LSB first, one stop bit. It returns once
// the last bit period has been scheduled, leaving the pin at the stop-bit
// level; the count is always len(p) since transmission is synchronous.
// Consecutive same-level bit periods — including runs that span byte
// boundaries — coalesce into a single pin write plus a single deadline
// wait, keeping jitter-inducing I/O off the hot path.
func (s *SoftUART) Write(p []byte) (int, error) {
	if s.rxValid {
		s.rxBits()
	}
	if !s.txValid {
		return 0, ErrTxDisabled
	}

	gpio := MustGPIO()
	if s.txEnableValid {
		_ = gpio.SetPin(s.txEnablePin, true)
	}
	// Park at the stop-bit level: low for inverted logic, otherwise high.
	_ = gpio.SetPin(s.txPin, !s.invert)

	var dutyCycles, offCycles uint32

	// Masking interrupts for the whole transfer gives the cleanest timing;
	// preciseDelay briefly unmasks during long waits.
	if !s.intTxEnabled {
		s.txIRQState = disableInterrupts()
	}
	s.periodDeadline = MustClock().Ticks()

	// The pin is parked at the stop-bit level, so the run tracker starts
	// there and carries across byte boundaries; a flush happens only on a
	// low-to-high transition or at the end of the buffer.
	prev := !s.invert

	for cnt, b := range p {
		o := b
		if s.invert {
			o = ^b
		}
		for i := -1; i < 9; i++ {
			var cur bool
			switch {
			case i < 0:
				cur = s.invert // start bit
			case i < 8:
				cur = o&1 != 0 // data bit, LSB first
				o >>= 1
			default:
				cur = !s.invert // stop bit
			}
			if !prev && cur {
				s.writePeriod(dutyCycles, offCycles)
				dutyCycles, offCycles = 0, 0
			}
			if cur {
				dutyCycles += s.bitCycles
			} else {
				offCycles += s.bitCycles
			}
			prev = cur
		}
		if cnt == len(p)-1 {
			s.writePeriod(dutyCycles, offCycles)
		}
	}

	if !s.intTxEnabled {
		restoreInterrupts(s.txIRQState)
	}
	if s.txEnableValid {
		_ = gpio.SetPin(s.txEnablePin, false)
	}
	return len(p), nil
}

// WriteByte transmits a single byte.
func (s *SoftUART) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

// writePeriod flushes one accumulated (high, low) pair of level durations:
// each nonzero duration is one pin write followed by one wait to the
// advancing absolute deadline.
func (s *SoftUART) writePeriod(dutyCycles, offCycles uint32) {
	gpio := MustGPIO()
	if dutyCycles > 0 {
		s.periodDeadline += dutyCycles
		_ = gpio.SetPin(s.txPin, true)
		s.preciseDelay(s.periodDeadline)
	}
	if offCycles > 0 {
		s.periodDeadline += offCycles
		_ = gpio.SetPin(s.txPin, false)
		s.preciseDelay(s.periodDeadline)
	}
}

// preciseDelay returns once the absolute cycle-counter deadline has passed.
// The bulk of a long wait goes to the cooperative micro-sleep — with
// interrupts unmasked again if Write masked them, so other interrupt-driven
// work is not starved — and the final stretch is a masked busy spin for
// cycle-level accuracy. Deadlines accumulate in the caller rather than
// being computed fresh, so scheduling overhead cannot drift a multi-byte
// transmission.
func (s *SoftUART) preciseDelay(deadline uint32) {
	clk := MustClock()
	if s.ticksPerMicro > 0 {
		micros := int32(deadline-clk.Ticks()) / int32(s.ticksPerMicro)
		if micros > 1 {
			if !s.intTxEnabled {
				restoreInterrupts(s.txIRQState)
			}
			clk.SleepMicros(uint32(micros - 1))
			if !s.intTxEnabled {
				s.txIRQState = disableInterrupts()
			}
		}
	}
	for int32(deadline-clk.Ticks()) > 1 {
	}
}
