//go:build rp2040

// Package pio provides a hardware-timed transmit backend on the RP2040
// PIO block. The state machine clocks out start, data and stop bits with
// zero CPU involvement per bit, so transmit timing stays exact no matter
// what interrupts the cores are servicing. Reception stays on the
// edge-capture path; PIO only replaces the bit-banged transmitter.
package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Each bit occupies exactly 8 PIO cycles, so the state machine clock
// divider is CPU frequency / (8 * baud).
//
// Program flow, one frame per FIFO word:
//  1. Stall on PULL at the stop/idle level until a byte arrives
//  2. Drive the start bit for 8 cycles
//  3. Shift out 8 data bits LSB first, 8 cycles each
//  4. Drive the stop bit for 8 cycles and wrap back to the PULL
//
// buildTxProgram assembles the program for one logic polarity. Inverted
// logic swaps the start and stop drive levels; data bits are pre-inverted
// by the caller before they reach the FIFO.
func buildTxProgram(invert bool) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	if invert {
		return []uint16{
			// .wrap_target
			asm.Pull(false, true).Encode(),                   // 0: pull block
			asm.Set(rp2pio.SetDestPins, 1).Delay(6).Encode(), // 1: set pins, 1 [6] (start)
			asm.Set(rp2pio.SetDestX, 7).Encode(),             // 2: set x, 7
			// bitloop:
			asm.Out(rp2pio.OutDestPins, 1).Delay(6).Encode(), // 3: out pins, 1 [6]
			asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),         // 4: jmp x--, 3
			asm.Set(rp2pio.SetDestPins, 0).Delay(7).Encode(), // 5: set pins, 0 [7] (stop)
			// .wrap
		}
	}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Set(rp2pio.SetDestPins, 0).Delay(6).Encode(), // 1: set pins, 0 [6] (start)
		asm.Set(rp2pio.SetDestX, 7).Encode(),             // 2: set x, 7
		// bitloop:
		asm.Out(rp2pio.OutDestPins, 1).Delay(6).Encode(), // 3: out pins, 1 [6]
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),         // 4: jmp x--, 3
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 5: set pins, 1 [7] (stop)
		// .wrap
	}
}

const txPIOOrigin = 0 // load at offset 0 for correct jump addresses

// UARTTx is one PIO state machine configured as a serial transmitter.
type UARTTx struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	txPin  machine.Pin
	invert bool
	offset uint8
}

// NewUARTTx binds a transmitter to a PIO block and state machine.
// pioNum: 0 for PIO0, 1 for PIO1. smNum: 0-3.
func NewUARTTx(pioNum, smNum uint8) *UARTTx {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &UARTTx{pio: pioHW, sm: pioHW.StateMachine(smNum)}
}

// Init loads the program and starts the state machine with the pin parked
// at the stop-bit level.
func (u *UARTTx) Init(txPin uint8, baud uint32, invert bool) error {
	u.txPin = machine.Pin(txPin)
	u.invert = invert

	u.sm.TryClaim()

	program := buildTxProgram(invert)
	offset, err := u.pio.AddProgram(program, txPIOOrigin)
	if err != nil {
		return err
	}
	u.offset = offset

	u.txPin.Configure(machine.PinConfig{Mode: u.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	// The same pin serves SET (start/stop bits) and OUT (data bits).
	cfg.SetSetPins(u.txPin, 1)
	cfg.SetOutPins(u.txPin, 1)
	// Shift right so bits leave LSB first; explicit PULL, no autopull.
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	div := machine.CPUFrequency() / (8 * baud)
	frac := uint8((machine.CPUFrequency() % (8 * baud)) * 256 / (8 * baud))
	cfg.SetClkDivIntFrac(uint16(div), frac)

	u.sm.Init(offset, cfg)
	u.sm.SetPindirsConsecutive(u.txPin, 1, true)
	u.sm.SetPinsConsecutive(u.txPin, 1, !invert) // park at stop level
	u.sm.SetEnabled(true)
	return nil
}

// WriteByte queues one byte, blocking briefly if the FIFO is full.
func (u *UARTTx) WriteByte(b byte) error {
	if u.invert {
		b = ^b
	}
	for u.sm.IsTxFIFOFull() {
		// A frame drains in ten bit periods; the wait is bounded.
	}
	u.sm.TxPut(uint32(b))
	return nil
}

// Write queues every byte in p. The count is always len(p); frames still
// in the FIFO continue on the wire after Write returns.
func (u *UARTTx) Write(p []byte) (int, error) {
	for _, b := range p {
		if err := u.WriteByte(b); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Stop halts the state machine and clears any queued frames.
func (u *UARTTx) Stop() {
	u.sm.SetEnabled(false)
	u.sm.ClearFIFOs()
	u.sm.Restart()
}
