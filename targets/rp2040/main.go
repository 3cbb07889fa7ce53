//go:build rp2040

// USB-to-soft-serial bridge for the RP2040. Bytes arriving on the USB CDC
// console go out on the software serial line and bytes received on the
// line echo back to the console, so the firmware doubles as a line tester:
// jumper GPIO2 to GPIO3 and everything typed comes back.
package main

import (
	"machine"
	"time"

	"softuart/core"
	"softuart/targets/pio"
	"softuart/targets/rp2xxx"
)

const (
	rxPin core.GPIOPin = 3
	txPin core.GPIOPin = 2
	baud               = 9600

	// Hardware-timed transmit on PIO0/SM0 instead of the bit-banged path.
	usePIOTx = false
)

func main() {
	// Give the USB CDC port time to enumerate before anything prints.
	time.Sleep(2 * time.Second)

	reg := rp2xxx.Setup()
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})

	cfg := core.Config{RxPin: rxPin, TxPin: txPin}
	if usePIOTx {
		cfg.TxPin = core.NoPin
	}
	line := core.New(reg, cfg)
	if err := line.Begin(baud); err != nil {
		for {
			core.Debug("begin failed: " + err.Error())
			time.Sleep(5 * time.Second)
		}
	}

	var pioTx *pio.UARTTx
	if usePIOTx {
		pioTx = pio.NewUARTTx(0, 0)
		if err := pioTx.Init(uint8(txPin), baud, false); err != nil {
			core.Debug("pio init failed: " + err.Error())
			pioTx = nil
		}
	}

	line.OnReceive(func(avail int) {
		for ; avail > 0; avail-- {
			b, err := line.ReadByte()
			if err != nil {
				return
			}
			machine.Serial.WriteByte(b)
		}
	})

	for {
		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			if pioTx != nil {
				pioTx.WriteByte(b)
			} else {
				line.WriteByte(b)
			}
		}
		line.PerformWork()
		if line.Overflow() {
			core.Debug("overflow: input arrived faster than it was drained")
		}
		time.Sleep(time.Millisecond)
	}
}
