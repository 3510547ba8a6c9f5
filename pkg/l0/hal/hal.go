// Package hal declares the board collaborators the telemetry core consumes.
// Host builds get them from package sim; TinyGo builds from package rp2.
package hal

// Axes is one raw sensor reading.
type Axes struct {
	Accel [3]int16
	Gyro  [3]int16
}

// Sensor reads all six axes. The call may block for the bus transaction.
type Sensor interface {
	ReadAxes() Axes
}

// TickSource is a free-running monotonic counter at a fixed frequency.
type TickSource interface {
	NowTicks() uint32
	TickHz() uint32
}

// CompareTimer is the periodic timer driving the sampling interrupt.
// The interrupt fires when the counter reaches the compare value.
type CompareTimer interface {
	Counter() uint32
	SetCompare(deadline uint32)
}

// ByteSink is the transmit side of a serial port.
type ByteSink interface {
	// ArmTxReady enables the transmit-ready interrupt.
	ArmTxReady()
	// DisarmTxReady disables the transmit-ready interrupt.
	DisarmTxReady()
	// WriteTx writes one byte to the transmit register.
	WriteTx(b byte)
}

// LED is a status indicator.
type LED interface {
	Toggle()
}

// Millis converts a tick delta into milliseconds for a given frequency.
func Millis(ticks, hz uint32) uint32 {
	return uint32(uint64(ticks) * 1000 / uint64(hz))
}

// TicksFromMillis converts milliseconds into ticks for a given frequency.
func TicksFromMillis(ms, hz uint32) uint32 {
	return uint32(uint64(ms) * uint64(hz) / 1000)
}
