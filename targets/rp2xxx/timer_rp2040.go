//go:build rp2040

package rp2xxx

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 TIMER peripheral. TIMERAWH/TIMERAWL are the unlatched reads of
// the 64-bit microsecond counter; only the low word matters here since
// all bit timing is 32-bit wrapping arithmetic.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24
	timerTIMERAWL = timerBase + 0x28
)

var (
	timerRawH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)
