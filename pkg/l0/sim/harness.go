package sim

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/hal"
	"github.com/robotalks/sensorlink/pkg/l0/pipeline"
	"github.com/robotalks/sensorlink/pkg/l0/ring"
	"github.com/robotalks/sensorlink/pkg/l0/sampler"
	"github.com/robotalks/sensorlink/pkg/l0/uart"
)

// realtimeSlice is how much simulated time Run covers between wall clock
// checks.
const realtimeSlice = 10 * time.Millisecond

// Harness wires the whole telemetry core onto a simulated Board.
type Harness struct {
	Config Config

	Board   *Board
	Sensor  *Sensor
	Sampler *sampler.Sampler
	Tx      *uart.Transmitter
	Loop    *pipeline.Loop
	Idle    *diag.IdleCounter
	Meter   *diag.BusyMeter

	started bool
}

type spinFunc func()

func (f spinFunc) Spin() { f() }

// NewHarness builds the pipeline described by conf; transmitted bytes go
// to wire.
func (c *Config) NewHarness(wire io.Writer) (*Harness, error) {
	p, cons, err := ring.New(c.RingSize)
	if err != nil {
		return nil, err
	}
	h := &Harness{Config: *c, Idle: &diag.IdleCounter{}}
	h.Board = NewBoard(c.TickHz, c.Baud, wire)
	h.Board.ArmCost = c.ArmCost
	h.Sensor = NewSensor(h.Board, c.SensorCost, c.SensorJitter, c.Seed)
	h.Sampler = sampler.New(p, h.Sensor, h.Board, h.Board, c.Period)
	h.Tx = uart.New(h.Board)
	h.Tx.Spinner = spinFunc(h.spin)
	h.Board.AttachTx(h.Tx.HandleTxReady)
	h.Meter = diag.NewBusyMeter(h.Idle, h.Board)
	h.Loop = pipeline.New(cons, h.Tx, h.Sampler, h.Board, h.Idle)
	h.Loop.LED = h.Board
	h.Loop.Meter = h.Meter
	h.Loop.LEDEvery = c.LEDEvery
	h.Loop.ReportIntervalMs = c.ReportIntervalMs
	return h, nil
}

// spin is one idle pass of the main loop.
func (h *Harness) spin() {
	h.Idle.Spin()
	h.Board.Advance(h.Config.StepCost)
}

// Calibrate measures the idle rate while nothing else runs. It must be
// called before Start.
func (h *Harness) Calibrate() uint32 {
	perMs := h.Meter.Calibrate(h.Config.CalibrationMs, h.spin)
	glog.Infof("calibrated idle rate %d spins/ms", perMs)
	return perMs
}

// Start arms the sampling timer.
func (h *Harness) Start() {
	if h.started {
		return
	}
	h.started = true
	h.Sampler.Start()
	h.Board.AttachTimer(h.Sampler.HandleTimer)
	h.Meter.Restart()
}

// Step runs one main loop pass and lets its time elapse.
func (h *Harness) Step() {
	h.Loop.Step()
	h.Board.Advance(h.Config.StepCost + h.Config.LoadTicks)
}

// RunFor steps the pipeline for ticks of simulated time.
func (h *Harness) RunFor(ticks uint64) {
	h.Start()
	end := h.Board.Elapsed() + ticks
	for h.Board.Elapsed() < end {
		h.Step()
	}
}

// RunDuration steps the pipeline for d of simulated time.
func (h *Harness) RunDuration(d time.Duration) {
	h.RunFor(uint64(d) * uint64(h.Config.TickHz) / uint64(time.Second))
}

// Run steps the pipeline until ctx is done, paced against the wall clock
// when Config.Realtime is set.
func (h *Harness) Run(ctx context.Context) error {
	h.Start()
	slice := uint64(hal.TicksFromMillis(uint32(realtimeSlice/time.Millisecond), h.Config.TickHz))
	var ticker *time.Ticker
	if h.Config.Realtime {
		ticker = time.NewTicker(realtimeSlice)
		defer ticker.Stop()
	}
	for {
		h.RunFor(slice)
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Stop disables the sampling timer and drains what is queued.
func (h *Harness) Stop(maxSpins int) error {
	h.Board.AttachTimer(nil)
	return h.Loop.Drain(maxSpins)
}

// Report returns the current pipeline report.
func (h *Harness) Report() pipeline.Report {
	return h.Loop.Snapshot()
}
