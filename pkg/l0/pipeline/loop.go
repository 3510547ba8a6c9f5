// Package pipeline implements the cooperative main loop draining the frame
// ring into the transmitter.
package pipeline

import (
	"context"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l0/hal"
	"github.com/robotalks/sensorlink/pkg/l0/ring"
	"github.com/robotalks/sensorlink/pkg/l0/uart"
)

// Defaults for housekeeping.
const (
	DefaultLEDEvery         = 10
	DefaultReportIntervalMs = 5000
)

// FrameSource is the producer side the loop reports back to.
// *sampler.Sampler implements it.
type FrameSource interface {
	// RecordSendTime stores the duration of the last hand-off.
	RecordSendTime(ticks uint32)
	// Ticks returns the number of timer interrupts serviced.
	Ticks() uint32
	// Missed returns the number of skipped periods.
	Missed() uint32
}

// Loop moves frames from the ring to the transmitter and runs housekeeping
// whenever there is nothing to send. No method blocks.
type Loop struct {
	// LEDEvery is the number of timer interrupts between LED toggles.
	LEDEvery uint32
	// ReportIntervalMs is the period of diagnostic reports.
	ReportIntervalMs uint32

	// Optional collaborators.
	LED      hal.LED
	Meter    *diag.BusyMeter
	Reporter Reporter

	consumer *ring.Consumer
	tx       *uart.Transmitter
	source   FrameSource
	clock    hal.TickSource
	idle     *diag.IdleCounter

	buf        frame.Buffer
	sent       uint32
	invalid    uint32
	ledTicks   uint32
	lastReport uint32
	started    uint32
}

// New creates a Loop. idle is spun on every pass without work, and by the
// transmitter while it waits for completion.
func New(c *ring.Consumer, tx *uart.Transmitter, source FrameSource, clock hal.TickSource, idle *diag.IdleCounter) *Loop {
	if tx.Spinner == nil {
		tx.Spinner = idle
	}
	now := clock.NowTicks()
	return &Loop{
		LEDEvery:         DefaultLEDEvery,
		ReportIntervalMs: DefaultReportIntervalMs,
		consumer:         c,
		tx:               tx,
		source:           source,
		clock:            clock,
		idle:             idle,
		lastReport:       now,
		started:          now,
	}
}

// Step runs one iteration and reports whether a frame was handed off.
//
// The transmitter is checked before the ring so a frame is never popped
// that cannot be sent right away.
func (l *Loop) Step() bool {
	if !l.tx.IsBusy() {
		if f, err := l.consumer.TryPop(); err == nil {
			l.send(&f)
			return true
		}
	}
	l.housekeeping()
	return false
}

// Run steps until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	done := ctx.Done()
	for {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		l.Step()
	}
}

// Drain hands off every frame still queued and waits for the transmitter to
// finish, giving up after maxSpins polls per frame when maxSpins > 0.
func (l *Loop) Drain(maxSpins int) error {
	for {
		if err := l.tx.WaitComplete(maxSpins); err != nil {
			return err
		}
		f, err := l.consumer.TryPop()
		if err != nil {
			return nil
		}
		l.send(&f)
	}
}

func (l *Loop) send(f *frame.Frame) {
	f.EncodeTo(&l.buf)
	start := l.clock.NowTicks()
	err := l.tx.Send(l.buf[:])
	l.source.RecordSendTime(l.clock.NowTicks() - start)
	switch err {
	case nil:
		l.sent++
	case uart.ErrInvalidArgument:
		l.invalid++
	default:
		// busy was false a moment ago and only this loop sets it
		panic(&InvariantError{Op: "send", Err: err})
	}
}

func (l *Loop) housekeeping() {
	l.idle.Spin()
	if l.LED != nil && l.LEDEvery > 0 {
		if ticks := l.source.Ticks(); ticks-l.ledTicks >= l.LEDEvery {
			l.ledTicks = ticks
			l.LED.Toggle()
		}
	}
	if l.Reporter == nil || l.ReportIntervalMs == 0 {
		return
	}
	now := l.clock.NowTicks()
	if now-l.lastReport >= hal.TicksFromMillis(l.ReportIntervalMs, l.clock.TickHz()) {
		l.lastReport = now
		r := l.Snapshot()
		l.Reporter.Report(&r)
	}
}

// Sent returns the number of frames handed to the transmitter.
func (l *Loop) Sent() uint32 {
	return l.sent
}

// Snapshot collects the current counters. Sampling the busy meter starts
// a new measurement window.
func (l *Loop) Snapshot() Report {
	r := Report{
		UptimeMs:        hal.Millis(l.clock.NowTicks()-l.started, l.clock.TickHz()),
		FramesSent:      l.sent,
		InvalidSends:    l.invalid,
		Tx:              l.tx.Stats(),
		RingAvailable:   uint32(l.consumer.Available()),
		RingOverflows:   l.consumer.Ring().Overflows(),
		RingPushed:      l.consumer.Ring().Pushed(),
		TimerTicks:      l.source.Ticks(),
		MissedDeadlines: l.source.Missed(),
	}
	if l.Meter != nil {
		r.Busy = l.Meter.Sample()
		r.PeakBusy = l.Meter.Peak()
	}
	return r
}
