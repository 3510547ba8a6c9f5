// Package diag provides CPU-busy estimation and sequence loss accounting
// for validating the telemetry link under load.
package diag

import (
	"sync/atomic"

	"github.com/robotalks/sensorlink/pkg/l0/hal"
)

// DefaultCalibrationMs is the length of the quiescent calibration window.
const DefaultCalibrationMs = 200

// IdleCounter advances once per spin of an idle path.
type IdleCounter struct {
	n atomic.Uint32
}

// Spin records one idle spin.
func (c *IdleCounter) Spin() {
	c.n.Add(1)
}

// Load returns the number of spins so far.
func (c *IdleCounter) Load() uint32 {
	return c.n.Load()
}

// BusySample is one measurement window.
type BusySample struct {
	Percent   uint32 `json:"percent"`
	Raw       int32  `json:"raw"`
	ElapsedMs uint32 `json:"elapsed_ms"`
	IdleSpins uint32 `json:"idle_spins"`
	// Recalibrate is set when more idle spins were seen than the calibration
	// allows for, which means idle_per_ms was under-sampled.
	Recalibrate bool `json:"recalibrate,omitempty"`
}

// BusyMeter estimates CPU load by comparing idle spins against the rate
// measured while nothing else ran.
type BusyMeter struct {
	idle  *IdleCounter
	clock hal.TickSource

	// calibration is kept as totals so fractional rates are not truncated
	calSpins  uint32
	calMs     uint32
	lastIdle  uint32
	lastTicks uint32
	peak      uint32
	last      BusySample
}

// NewBusyMeter creates a BusyMeter reading idle.
func NewBusyMeter(idle *IdleCounter, clock hal.TickSource) *BusyMeter {
	return &BusyMeter{idle: idle, clock: clock}
}

// Calibrate calls spin repeatedly for windowMs and records the spins counted
// meanwhile. It returns idle_per_ms. Nothing else may run during the window.
func (m *BusyMeter) Calibrate(windowMs uint32, spin func()) uint32 {
	if windowMs == 0 {
		windowMs = DefaultCalibrationMs
	}
	hz := m.clock.TickHz()
	window := hal.TicksFromMillis(windowMs, hz)
	startIdle, start := m.idle.Load(), m.clock.NowTicks()
	now := start
	for now-start < window {
		spin()
		now = m.clock.NowTicks()
	}
	elapsedMs := hal.Millis(now-start, hz)
	if elapsedMs == 0 {
		elapsedMs = 1
	}
	m.calSpins, m.calMs = m.idle.Load()-startIdle, elapsedMs
	if m.calSpins == 0 {
		m.calSpins = 1
	}
	m.Restart()
	return m.IdlePerMs()
}

// IdlePerMs returns the calibrated idle rate, truncated to whole spins.
func (m *BusyMeter) IdlePerMs() uint32 {
	if m.calMs == 0 {
		return 0
	}
	return m.calSpins / m.calMs
}

// SetIdlePerMs overrides the calibrated idle rate.
func (m *BusyMeter) SetIdlePerMs(v uint32) {
	m.calSpins, m.calMs = v, 1
}

// Restart begins a new measurement window now.
func (m *BusyMeter) Restart() {
	m.lastIdle, m.lastTicks = m.idle.Load(), m.clock.NowTicks()
}

// Sample closes the current window, starts the next one and returns the
// estimate for the closed window. Windows shorter than 1 ms return the
// previous sample unchanged.
func (m *BusyMeter) Sample() BusySample {
	idle, now := m.idle.Load(), m.clock.NowTicks()
	elapsedMs := hal.Millis(now-m.lastTicks, m.clock.TickHz())
	if elapsedMs == 0 || m.calMs == 0 || m.calSpins == 0 {
		return m.last
	}
	s := BusySample{ElapsedMs: elapsedMs, IdleSpins: idle - m.lastIdle}
	theoretical := int64(m.calSpins) * int64(elapsedMs) / int64(m.calMs)
	s.Raw = busyPercent(theoretical, s.IdleSpins)
	switch {
	case s.Raw < 0:
		s.Recalibrate = true
	case s.Raw > 100:
		s.Percent = 100
	default:
		s.Percent = uint32(s.Raw)
	}
	if s.Percent > m.peak {
		m.peak = s.Percent
	}
	m.lastIdle, m.lastTicks, m.last = idle, now, s
	return s
}

// Peak returns the highest busy percentage seen.
func (m *BusyMeter) Peak() uint32 {
	return m.peak
}

// Last returns the most recent sample.
func (m *BusyMeter) Last() BusySample {
	return m.last
}

// BusyPercent computes 100 * (theoretical - actual) / theoretical without
// clamping, where theoretical = idlePerMs * elapsedMs.
func BusyPercent(idlePerMs, elapsedMs, actual uint32) int32 {
	return busyPercent(int64(idlePerMs)*int64(elapsedMs), actual)
}

func busyPercent(theoretical int64, actual uint32) int32 {
	if theoretical <= 0 {
		return 0
	}
	return int32(100 * (theoretical - int64(actual)) / theoretical)
}
