package pipeline

import (
	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/uart"
)

// Report is the periodic diagnostic snapshot of the pipeline.
type Report struct {
	UptimeMs        uint32          `json:"uptime_ms"`
	FramesSent      uint32          `json:"frames_sent"`
	InvalidSends    uint32          `json:"invalid_sends,omitempty"`
	Tx              uart.Stats      `json:"tx"`
	RingAvailable   uint32          `json:"ring_available"`
	RingOverflows   uint32          `json:"ring_overflows"`
	RingPushed      uint32          `json:"ring_pushed"`
	TimerTicks      uint32          `json:"timer_ticks"`
	MissedDeadlines uint32          `json:"missed_deadlines"`
	Busy            diag.BusySample `json:"busy"`
	PeakBusy        uint32          `json:"peak_busy"`
}

// Reporter receives periodic reports from the loop.
type Reporter interface {
	Report(*Report)
}

// ReportFunc is the func form of Reporter.
type ReportFunc func(*Report)

// Report implements Reporter.
func (f ReportFunc) Report(r *Report) {
	f(r)
}

// InvariantError is raised as a panic when the transmitter rejects a frame
// right after reporting idle. The system cannot continue past it.
type InvariantError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *InvariantError) Error() string {
	return "pipeline invariant violated in " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InvariantError) Unwrap() error {
	return e.Err
}
