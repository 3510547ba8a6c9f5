// Package bridge is the host end of the telemetry link: it decodes the
// serial stream, keeps link statistics and publishes them as events.
package bridge

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l0/comm"
	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/msgs"
)

// Mode selects what the link carries.
type Mode string

// Modes
const (
	// ModeFrames expects telemetry frames.
	ModeFrames Mode = "frames"
	// ModeBytes expects a raw counting byte stream.
	ModeBytes Mode = "bytes"
)

// IsValid tells whether the mode is known.
func (m Mode) IsValid() bool {
	return m == ModeFrames || m == ModeBytes
}

// DefaultTickHz is the board tick rate frame times are stamped with.
const DefaultTickHz = 645000

const readChunk = 256

// Controller reads the link in the background and, inside the loop,
// answers link commands and publishes statistics.
type Controller struct {
	Registrar      l1.Registrar
	Mode           Mode
	ReportInterval time.Duration
	PublishFrames  bool

	input     io.Reader
	receiver  *comm.Receiver
	collector *comm.Collector
	bytes     *comm.ByteStream

	startedAt    time.Time
	lastReport   time.Time
	stateChanged bool
	reports      uint64
}

// NewController creates a Controller.
func NewController(reg l1.Registrar, input io.Reader, mode Mode, tickHz uint32) *Controller {
	c := &Controller{
		Registrar:      reg,
		Mode:           mode,
		ReportInterval: defaultConfig.ReportInterval,
		input:          input,
	}
	if mode == ModeBytes {
		c.bytes = comm.NewByteStream()
	} else {
		c.receiver = comm.NewReceiver(input)
		c.collector = comm.NewCollector(tickHz)
	}
	return c
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("link", c))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPublish, fx.ControlFunc(c.publish))
}

// Run implements Runnable. It returns nil when the input ends.
func (c *Controller) Run(ctx context.Context) error {
	if c.Mode == ModeBytes {
		return c.runBytes(ctx)
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	c.receiver.Handler = comm.HandleFrameFunc(func(ctx context.Context, f *frame.Frame) {
		c.collector.Add(f)
		if c.PublishFrames {
			loopCtl.PostMessage(msgs.FrameSampleFrom(f))
			loopCtl.TriggerNext()
		}
	})
	c.receiver.Notifier = comm.StateChangedFunc(func(ctx context.Context, state comm.SyncState) {
		loopCtl.PostMessage(&stateMsg{state: state})
		loopCtl.TriggerNext()
	})
	return c.receiver.Run(ctx)
}

func (c *Controller) runBytes(ctx context.Context) error {
	buf := make([]byte, readChunk)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := c.input.Read(buf)
		c.bytes.Write(buf[:n])
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	if c.startedAt.IsZero() {
		c.startedAt, c.lastReport = cc.Time(), cc.Time()
	}
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *l1.CommandMsg:
			switch m := msg.Command.Msg().(type) {
			case *msgs.LinkStatsQuery:
				mctx.MessageTaken()
				msg.Command.Done(&msgs.LinkStatsReply{Stats: c.Stats(cc.Time())})
			case *msgs.LinkReset:
				mctx.MessageTaken()
				c.Reset()
				glog.Info("link statistics reset")
				msg.Command.Done(msgs.NewCommandOK())
			case *msgs.FrameTailQuery:
				mctx.MessageTaken()
				msg.Command.Done(c.tail(m))
			}
		case *stateMsg:
			mctx.MessageTaken()
			c.stateChanged = true
			switch {
			case msg.state.IsReady() && !msg.state.IsReceiving():
				glog.V(2).Info("link idle")
			case msg.state.IsReady():
				glog.V(2).Info("link synchronized")
			case !msg.state.IsReceiving():
				glog.Warning("link lost synchronization")
			}
		}
	}))
	return nil
}

func (c *Controller) tail(q *msgs.FrameTailQuery) fx.Message {
	if c.collector == nil {
		return msgs.NewCommandErrFromMsg("no frames in " + string(c.Mode) + " mode")
	}
	frames := c.collector.Tail(int(q.Count))
	reply := &msgs.FrameTailReply{Frames: make([]*msgs.FrameSample, len(frames))}
	for n := range frames {
		reply.Frames[n] = msgs.FrameSampleFrom(&frames[n])
	}
	return reply
}

func (c *Controller) publish(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if sample, ok := mctx.CurrentMessage().(*msgs.FrameSample); ok {
			mctx.MessageTaken()
			errs.Add(c.Registrar.SendEvent(cc.Context(), sample))
		}
	}))
	now := cc.Time()
	due := c.ReportInterval > 0 && now.Sub(c.lastReport) >= c.ReportInterval
	if due || c.stateChanged {
		stats := c.Stats(now)
		if due {
			c.lastReport = now
			c.reports++
			glog.Infof("link: frames %d lost %d overruns %d checksum %d skipped %d, %.1f frames/s",
				stats.Frames, stats.Lost, stats.Overruns, stats.ChecksumErrors, stats.SkippedBytes, stats.FramesPerSec)
		}
		c.stateChanged = false
		errs.Add(c.Registrar.SendEvent(cc.Context(), stats))
	}
	return errs.Aggregate()
}

// Stats snapshots the link statistics.
func (c *Controller) Stats(now time.Time) *msgs.LinkStats {
	s := &msgs.LinkStats{Mode: string(c.Mode)}
	if !c.startedAt.IsZero() && now.After(c.startedAt) {
		s.UptimeMs = uint64(now.Sub(c.startedAt) / time.Millisecond)
	}
	if c.Mode == ModeBytes {
		st := c.bytes.Stats()
		s.Bytes = st.Bytes
		setSeq(s, st.Seq)
		return s
	}
	rx := c.receiver.Stats()
	s.SyncState = c.receiver.State().String()
	s.ChecksumErrors = rx.ChecksumErrors
	s.SkippedBytes = rx.SkippedBytes
	s.Timeouts = rx.Timeouts
	s.Bytes = rx.Frames*frame.Size + rx.SkippedBytes

	sum := c.collector.Summary()
	s.Frames = sum.Frames
	setSeq(s, sum.Seq)
	s.RawLost = sum.RawLost
	s.FramesPerSec = sum.FramesPerSec
	s.BytesPerSec = sum.BytesPerSec
	s.ProcessMsMean = sum.ProcessMs.Mean
	s.SendMsMean = sum.SendMs.Mean
	s.IntervalMsMean = sum.IntervalMs.Mean
	s.IntervalMsMax = sum.IntervalMs.Max
	return s
}

func setSeq(s *msgs.LinkStats, seq diag.SeqStats) {
	s.Synced = seq.Synced
	s.Overruns = seq.Overruns
	s.Lost = seq.Lost
	s.MaxBurst = seq.MaxBurst
}

// Reset clears all link statistics.
func (c *Controller) Reset() {
	if c.Mode == ModeBytes {
		c.bytes.Reset()
		return
	}
	c.receiver.ResetStats()
	c.collector.Reset()
}

// Summary returns the collector summary; zero in bytes mode.
func (c *Controller) Summary() comm.Summary {
	if c.collector == nil {
		return comm.Summary{}
	}
	return c.collector.Summary()
}

// ByteStats returns the byte stream counters; zero in frames mode.
func (c *Controller) ByteStats() comm.ByteStreamStats {
	if c.bytes == nil {
		return comm.ByteStreamStats{}
	}
	return c.bytes.Stats()
}

// Reports returns the number of periodic reports published.
func (c *Controller) Reports() uint64 {
	return c.reports
}

type stateMsg struct {
	state comm.SyncState
}

func (m *stateMsg) NewMessage() fx.Message { return &stateMsg{} }
