package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// NoPin marks an unassigned pin. Lines constructed with NoPin for a
// direction have that direction disabled.
const NoPin = GPIOPin(0xFFFFFFFF)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ValidPin reports whether the pin exists and may be used for
	// software serial on this chip
	ValidPin(pin GPIOPin) bool

	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the current pin state
	ReadPin(pin GPIOPin) bool
}

// IRQDriver is the abstract pin-change interrupt controller. The callback
// carries no argument; routing an event back to the owning line instance is
// the Registry's job.
type IRQDriver interface {
	// AttachPinChange arms a both-edge pin-change interrupt on the pin
	AttachPinChange(pin GPIOPin, handler func()) error

	// DetachPinChange disarms the pin-change interrupt on the pin
	DetachPinChange(pin GPIOPin) error
}

// Clock is the free-running cycle counter used for all bit timing.
type Clock interface {
	// Ticks returns the current counter value. The counter wraps at 32
	// bits; all consumers use signed subtraction on the wrapped values.
	Ticks() uint32

	// Hz returns the counter frequency
	Hz() uint32

	// SleepMicros yields to other work for approximately the given number
	// of microseconds. Used for the coarse part of transmit waits and the
	// optimistic retry in Available.
	SleepMicros(us uint32)
}

// Global drivers used by core code.
var (
	gpioDriver GPIODriver
	irqDriver  IRQDriver
	clock      Clock
)

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// SetIRQDriver registers the platform interrupt controller.
func SetIRQDriver(d IRQDriver) {
	irqDriver = d
}

// SetClock registers the platform cycle counter.
func SetClock(c Clock) {
	clock = c
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

// MustIRQ returns the configured interrupt controller or panics if missing.
func MustIRQ() IRQDriver {
	if irqDriver == nil {
		panic("IRQ driver not configured")
	}
	return irqDriver
}

// MustClock returns the configured cycle counter or panics if missing.
func MustClock() Clock {
	if clock == nil {
		panic("clock not configured")
	}
	return clock
}
