//go:build rp2350

package rp2xxx

import (
	"runtime/volatile"
	"unsafe"
)

// RP2350 TIMER0 peripheral. Same register layout as the RP2040 timer but
// at a different base address.
const (
	timerBase     = 0x400B0000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28
)

var (
	timerRawH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)
