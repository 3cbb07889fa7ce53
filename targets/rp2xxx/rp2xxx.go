//go:build rp2040 || rp2350

// Package rp2xxx provides the RP2040/RP2350 hardware drivers for the
// software serial core: GPIO access through the TinyGo machine package,
// pin-change interrupts through machine's per-pin IRQ support, and a
// cycle counter backed by the free-running hardware timer.
package rp2xxx

import (
	"machine"
	"time"

	"softuart/core"
)

// GPIODriver drives pins through the machine package. Pins map directly
// to GPIO numbers.
type GPIODriver struct {
	configured map[core.GPIOPin]machine.Pin
}

func NewGPIODriver() *GPIODriver {
	return &GPIODriver{configured: make(map[core.GPIOPin]machine.Pin)}
}

func (d *GPIODriver) ValidPin(pin core.GPIOPin) bool {
	// GPIO0-GPIO29 are usable on both chips.
	return pin != core.NoPin && pin <= 29
}

func (d *GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured[pin] = p
	return nil
}

func (d *GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configured[pin] = p
	return nil
}

func (d *GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configured[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.configured[pin]
	}
	p.Set(value)
	return nil
}

func (d *GPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// IRQDriver arms per-pin toggle interrupts. The RP2 port dispatches a
// single callback per pin, so attach simply replaces any previous handler.
type IRQDriver struct{}

func NewIRQDriver() *IRQDriver { return &IRQDriver{} }

func (d *IRQDriver) AttachPinChange(pin core.GPIOPin, handler func()) error {
	return machine.Pin(pin).SetInterrupt(machine.PinToggle, func(machine.Pin) { handler() })
}

func (d *IRQDriver) DetachPinChange(pin core.GPIOPin) error {
	var zero machine.PinChange
	return machine.Pin(pin).SetInterrupt(zero, nil)
}

// TimerClock exposes the chip's free-running 1 MHz timer as the bit-timing
// reference. Reads go straight to the raw low word; the coarse sleep is
// TinyGo's scheduler-aware time.Sleep so other goroutines keep running
// during long waits.
type TimerClock struct{}

func NewTimerClock() *TimerClock { return &TimerClock{} }

func (c *TimerClock) Ticks() uint32 { return timerRawL.Get() }

func (c *TimerClock) Hz() uint32 { return 1000000 }

func (c *TimerClock) SleepMicros(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// Setup registers all RP2 drivers with the core and returns the shared
// line registry.
func Setup() *core.Registry {
	core.SetGPIODriver(NewGPIODriver())
	core.SetIRQDriver(NewIRQDriver())
	core.SetClock(NewTimerClock())
	return core.NewRegistry()
}
