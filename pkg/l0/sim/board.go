// Package sim simulates the board the telemetry core runs on. Time is
// discrete: it only moves when the main loop spends it, and interrupts are
// dispatched at their exact tick in between.
package sim

import (
	"io"
)

// Default board parameters.
const (
	DefaultTickHz = 645000
	DefaultBaud   = 115200
	// BitsPerByte on an 8N1 line.
	BitsPerByte = 10
)

// Board implements every hal collaborator on simulated time.
type Board struct {
	// ArmCost is the ticks spent programming the transmitter on arm.
	ArmCost uint32

	hz        uint32
	byteTicks uint64

	now uint64

	timerEnabled bool
	compare      uint32
	timerISR     func()

	txISR     func()
	txArmed   bool
	txReadyAt uint64

	wire     io.Writer
	wireErr  error
	txBytes  uint64
	inISR    bool
	toggles  int
	ledOn    bool
	timerIRQ uint64
	txIRQ    uint64
}

// NewBoard creates a Board ticking at hz with a serial line at baud,
// writing transmitted bytes to wire when it is not nil.
func NewBoard(hz, baud uint32, wire io.Writer) *Board {
	if hz == 0 {
		hz = DefaultTickHz
	}
	if baud == 0 {
		baud = DefaultBaud
	}
	byteTicks := uint64(hz) * BitsPerByte / uint64(baud)
	if byteTicks == 0 {
		byteTicks = 1
	}
	return &Board{hz: hz, byteTicks: byteTicks, wire: wire}
}

// NowTicks implements hal.TickSource.
func (b *Board) NowTicks() uint32 { return uint32(b.now) }

// TickHz implements hal.TickSource.
func (b *Board) TickHz() uint32 { return b.hz }

// Counter implements hal.CompareTimer.
func (b *Board) Counter() uint32 { return uint32(b.now) }

// SetCompare implements hal.CompareTimer.
func (b *Board) SetCompare(deadline uint32) { b.compare = deadline }

// ArmTxReady implements hal.ByteSink.
func (b *Board) ArmTxReady() {
	b.txArmed = true
	b.now += uint64(b.ArmCost)
}

// DisarmTxReady implements hal.ByteSink.
func (b *Board) DisarmTxReady() { b.txArmed = false }

// WriteTx implements hal.ByteSink. The register accepts the next byte once
// this one has been shifted out.
func (b *Board) WriteTx(v byte) {
	b.txBytes++
	b.txReadyAt = b.now + b.byteTicks
	if b.wire != nil && b.wireErr == nil {
		_, b.wireErr = b.wire.Write([]byte{v})
	}
}

// Toggle implements hal.LED.
func (b *Board) Toggle() {
	b.ledOn = !b.ledOn
	b.toggles++
}

// AttachTimer installs the compare-match interrupt handler and enables it.
func (b *Board) AttachTimer(isr func()) {
	b.timerISR = isr
	b.timerEnabled = isr != nil
}

// AttachTx installs the transmit-ready interrupt handler.
func (b *Board) AttachTx(isr func()) {
	b.txISR = isr
}

// Spend advances time by ticks without dispatching interrupts, as code
// running inside an interrupt does.
func (b *Board) Spend(ticks uint32) {
	b.now += uint64(ticks)
}

// Advance lets ticks pass in the main context, dispatching every interrupt
// that falls due on the way. Interrupt handlers may spend time themselves,
// which can push the clock beyond the requested point.
func (b *Board) Advance(ticks uint32) {
	end := b.now + uint64(ticks)
	for {
		at, isr := b.nextEvent()
		if isr == nil || at > end {
			break
		}
		if at > b.now {
			b.now = at
		}
		b.inISR = true
		isr()
		b.inISR = false
	}
	if b.now < end {
		b.now = end
	}
}

// nextEvent returns the earliest pending interrupt. The timer wins ties as
// it has the higher priority.
func (b *Board) nextEvent() (uint64, func()) {
	var (
		at  uint64
		isr func()
	)
	if b.timerEnabled && b.timerISR != nil {
		at = b.now
		if d := int32(b.compare - uint32(b.now)); d > 0 {
			at += uint64(d)
		}
		isr = b.countTimer
	}
	if b.txArmed && b.txISR != nil {
		txAt := b.txReadyAt
		if txAt < b.now {
			txAt = b.now
		}
		if isr == nil || txAt < at {
			at, isr = txAt, b.countTx
		}
	}
	return at, isr
}

func (b *Board) countTimer() {
	b.timerIRQ++
	b.timerISR()
}

func (b *Board) countTx() {
	b.txIRQ++
	b.txISR()
}

// Elapsed returns the simulated ticks since power-on without wrapping.
func (b *Board) Elapsed() uint64 { return b.now }

// InISR reports whether an interrupt handler is running.
func (b *Board) InISR() bool { return b.inISR }

// WireBytes returns the number of bytes written to the line.
func (b *Board) WireBytes() uint64 { return b.txBytes }

// WireErr returns the first error writing to the wire.
func (b *Board) WireErr() error { return b.wireErr }

// LED returns the LED state and the number of toggles.
func (b *Board) LED() (on bool, toggles int) { return b.ledOn, b.toggles }

// Interrupts returns how many timer and transmit interrupts were dispatched.
func (b *Board) Interrupts() (timer, tx uint64) { return b.timerIRQ, b.txIRQ }
