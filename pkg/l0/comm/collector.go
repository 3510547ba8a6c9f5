package comm

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// DefaultTailSize is how many recent frames a Collector keeps.
const DefaultTailSize = 32

// Summary is the statistics of a received frame stream.
type Summary struct {
	Frames  uint64        `json:"frames"`
	Seq     diag.SeqStats `json:"seq"`
	RawLost uint64        `json:"raw_lost"`

	DurationMs   float64 `json:"duration_ms"`
	FramesPerSec float64 `json:"frames_per_sec"`
	BytesPerSec  float64 `json:"bytes_per_sec"`

	ProcessMs  Stat `json:"process_ms"`
	SendMs     Stat `json:"send_ms"`
	TotalMs    Stat `json:"total_ms"`
	IntervalMs Stat `json:"interval_ms"`
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Collector accumulates statistics of received frames. It is safe for
// concurrent use.
type Collector struct {
	tickHz uint32

	lock     sync.Mutex
	frames   uint64
	seq      *diag.SeqTracker
	rawLost  uint64
	haveLast bool
	last     frame.Frame
	spanTick uint64

	process  *series
	send     *series
	total    *series
	interval *series

	tail     []frame.Frame
	tailNext int
	tailSize int
}

// NewCollector creates a Collector for frames stamped at tickHz.
func NewCollector(tickHz uint32) *Collector {
	return &Collector{
		tickHz:   tickHz,
		seq:      diag.NewSeqTracker(diag.SeqBits16),
		process:  newSeries(DefaultMaxSamples),
		send:     newSeries(DefaultMaxSamples),
		total:    newSeries(DefaultMaxSamples),
		interval: newSeries(DefaultMaxSamples),
		tailSize: DefaultTailSize,
	}
}

// HandleFrame implements FrameHandler.
func (c *Collector) HandleFrame(ctx context.Context, f *frame.Frame) {
	c.Add(f)
}

// Add accounts one frame.
func (c *Collector) Add(f *frame.Frame) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.frames++
	c.seq.Observe(uint32(f.Seq))
	if c.haveLast {
		c.rawLost += uint64(uint16(f.Seq - c.last.Seq - 1))
		dt := f.Timestamp - c.last.Timestamp
		c.spanTick += uint64(dt)
		c.interval.add(c.millis(dt))
	}
	c.haveLast, c.last = true, *f
	c.process.add(c.millis(f.ProcessTime))
	c.send.add(c.millis(f.PriorSendTime))
	c.total.add(c.millis(f.ProcessTime + f.PriorSendTime))

	if len(c.tail) < c.tailSize {
		c.tail = append(c.tail, *f)
	} else {
		c.tail[c.tailNext] = *f
		c.tailNext = (c.tailNext + 1) % c.tailSize
	}
}

func (c *Collector) millis(ticks uint32) float64 {
	if c.tickHz == 0 {
		return 0
	}
	return float64(ticks) * 1000 / float64(c.tickHz)
}

// Summary computes the statistics so far.
func (c *Collector) Summary() Summary {
	c.lock.Lock()
	defer c.lock.Unlock()
	s := Summary{
		Frames:     c.frames,
		Seq:        c.seq.Stats(),
		RawLost:    c.rawLost,
		ProcessMs:  c.process.stat(),
		SendMs:     c.send.stat(),
		TotalMs:    c.total.stat(),
		IntervalMs: c.interval.stat(),
	}
	if c.spanTick > 0 && c.tickHz > 0 {
		secs := float64(c.spanTick) / float64(c.tickHz)
		s.DurationMs = secs * 1000
		// frames after the first one arrived within the span
		s.FramesPerSec = float64(c.frames-1) / secs
		s.BytesPerSec = s.FramesPerSec * frame.Size
	}
	return s
}

// Tail returns up to n of the most recent frames, oldest first.
// n <= 0 returns all kept frames.
func (c *Collector) Tail(n int) []frame.Frame {
	c.lock.Lock()
	defer c.lock.Unlock()
	ordered := make([]frame.Frame, 0, len(c.tail))
	ordered = append(ordered, c.tail[c.tailNext:]...)
	ordered = append(ordered, c.tail[:c.tailNext]...)
	if n > 0 && n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// Reset clears all statistics.
func (c *Collector) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.frames, c.rawLost, c.spanTick = 0, 0, 0
	c.haveLast = false
	c.seq.Reset()
	for _, s := range []*series{c.process, c.send, c.total, c.interval} {
		s.reset()
	}
	c.tail, c.tailNext = c.tail[:0], 0
}
