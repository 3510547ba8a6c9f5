// Package uart implements the interrupt-driven, non-blocking byte transmitter.
package uart

import (
	"sync/atomic"

	"github.com/robotalks/sensorlink/pkg/l0/hal"
)

// BufferSize is the capacity of the internal transmit buffer.
const BufferSize = 64

// Stats are the cumulative transmitter counters.
type Stats struct {
	BytesSent          uint32 `json:"bytes_sent"`
	PacketsSent        uint32 `json:"packets_sent"`
	InterruptsServiced uint32 `json:"interrupts_serviced"`
	SendRejections     uint32 `json:"send_rejections"`
}

// Spinner is notified once per spin of WaitComplete.
type Spinner interface {
	Spin()
}

// Transmitter pumps one buffered packet out of a ByteSink, one byte per
// transmit-ready interrupt.
//
// busy is the handshake between the caller of Send and the interrupt:
// Send writes the buffer and sets busy only while busy is false, and only
// HandleTxReady clears it once the last byte is written.
type Transmitter struct {
	sink hal.ByteSink

	// Spinner, when set, is called on every WaitComplete poll.
	Spinner Spinner

	buf    [BufferSize]byte
	length int
	cursor int
	busy   atomic.Bool

	bytesSent   atomic.Uint32
	packetsSent atomic.Uint32
	interrupts  atomic.Uint32
	rejections  atomic.Uint32
}

// New creates a Transmitter writing to sink.
func New(sink hal.ByteSink) *Transmitter {
	return &Transmitter{sink: sink}
}

// Send copies data into the transmit buffer and arms the transmit-ready
// interrupt. It returns immediately; data may be reused as soon as it
// returns.
func (t *Transmitter) Send(data []byte) error {
	if len(data) == 0 || len(data) > BufferSize {
		return ErrInvalidArgument
	}
	if t.busy.Load() {
		t.rejections.Add(1)
		return ErrBusy
	}
	t.length = copy(t.buf[:], data)
	t.cursor = 0
	t.busy.Store(true)
	t.sink.ArmTxReady()
	return nil
}

// IsBusy reports whether a packet is still being sent.
func (t *Transmitter) IsBusy() bool {
	return t.busy.Load()
}

// WaitComplete spins until the current packet is drained. With maxSpins > 0
// it gives up after that many polls and returns ErrTimeout; maxSpins <= 0
// spins without bound and relies on the interrupt making progress.
func (t *Transmitter) WaitComplete(maxSpins int) error {
	for n := 0; t.busy.Load(); n++ {
		if maxSpins > 0 && n >= maxSpins {
			return ErrTimeout
		}
		if s := t.Spinner; s != nil {
			s.Spin()
		}
	}
	return nil
}

// HandleTxReady is the transmit-ready interrupt handler.
func (t *Transmitter) HandleTxReady() {
	if !t.busy.Load() {
		// spurious, nothing in flight
		t.sink.DisarmTxReady()
		return
	}
	if t.cursor < t.length {
		t.sink.WriteTx(t.buf[t.cursor])
		t.cursor++
		t.interrupts.Add(1)
		t.bytesSent.Add(1)
	}
	if t.cursor >= t.length {
		t.sink.DisarmTxReady()
		t.packetsSent.Add(1)
		t.busy.Store(false)
	}
}

// Stats returns a snapshot of the counters.
func (t *Transmitter) Stats() Stats {
	state := hal.DisableInterrupts()
	defer hal.RestoreInterrupts(state)
	return Stats{
		BytesSent:          t.bytesSent.Load(),
		PacketsSent:        t.packetsSent.Load(),
		InterruptsServiced: t.interrupts.Load(),
		SendRejections:     t.rejections.Load(),
	}
}
