// Package sampler implements the periodic timer interrupt that reads the
// sensor, frames the reading and queues it for transmission.
package sampler

import (
	"sync/atomic"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l0/hal"
	"github.com/robotalks/sensorlink/pkg/l0/ring"
)

// Defaults matching a 645 kHz tick source.
const (
	DefaultTickHz = 645000
	DefaultPeriod = 32250 // 50 ms
)

// Sampler is the producer side of the pipeline.
// HandleTimer runs in interrupt context; every other method is for the
// main loop.
type Sampler struct {
	producer *ring.Producer
	sensor   hal.Sensor
	clock    hal.TickSource
	timer    hal.CompareTimer
	period   uint32

	// interrupt-owned
	deadline uint32
	seq      frame.Seq

	priorSend atomic.Uint32
	ticks     atomic.Uint32
	missed    atomic.Uint32
}

// New creates a Sampler pushing into p every period ticks.
func New(p *ring.Producer, sensor hal.Sensor, clock hal.TickSource, timer hal.CompareTimer, period uint32) *Sampler {
	if period == 0 {
		period = DefaultPeriod
	}
	return &Sampler{
		producer: p,
		sensor:   sensor,
		clock:    clock,
		timer:    timer,
		period:   period,
	}
}

// Period returns the sampling period in ticks.
func (s *Sampler) Period() uint32 {
	return s.period
}

// Start programs the first deadline one period from now.
// It must be called before the timer interrupt is enabled.
func (s *Sampler) Start() {
	s.deadline = s.timer.Counter() + s.period
	s.timer.SetCompare(s.deadline)
}

// HandleTimer is the compare-match interrupt handler.
func (s *Sampler) HandleTimer() {
	s.reschedule()
	s.ticks.Add(1)

	var f frame.Frame
	f.Seq = s.seq
	f.Timestamp = s.clock.NowTicks()
	axes := s.sensor.ReadAxes()
	f.ProcessTime = s.clock.NowTicks() - f.Timestamp
	f.Accel, f.Gyro = axes.Accel, axes.Gyro
	f.PriorSendTime = s.priorSend.Load()
	f.Seal()
	s.seq = s.seq.Next()

	// overflow is counted by the ring
	s.producer.TryPush(&f)
}

// reschedule advances the deadline from the previous deadline, so interrupt
// latency never accumulates. Periods already in the past are skipped.
func (s *Sampler) reschedule() {
	now := s.timer.Counter()
	s.deadline += s.period
	for int32(s.deadline-now) <= 0 {
		s.deadline += s.period
		s.missed.Add(1)
	}
	s.timer.SetCompare(s.deadline)
}

// RecordSendTime stores how many ticks the last hand-off to the transmitter
// took; the next frame carries it as its prior send time.
func (s *Sampler) RecordSendTime(ticks uint32) {
	s.priorSend.Store(ticks)
}

// Ticks returns the number of timer interrupts serviced.
func (s *Sampler) Ticks() uint32 {
	return s.ticks.Load()
}

// Missed returns the number of periods skipped because the interrupt was
// serviced after the following deadline had already passed.
func (s *Sampler) Missed() uint32 {
	return s.missed.Load()
}
