// Package ring provides the single-producer/single-consumer frame queue
// shared between the sampling interrupt and the main loop.
package ring

import (
	"sync/atomic"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// Ring is a fixed array of N frames, N a power of two. One slot is always
// kept empty so full and empty can be told apart, leaving N-1 usable.
//
// write is stored only by the Producer and read only by the Consumer.
// A slot is fully written before write is published, and the Consumer
// loads write before it touches the slot.
type Ring struct {
	slots []frame.Frame
	mask  uint32

	write atomic.Uint32
	read  atomic.Uint32

	overflows atomic.Uint32
	pushed    atomic.Uint32
}

// Producer is the write side of a Ring. Only one context may own it.
type Producer struct {
	r *Ring
}

// Consumer is the read side of a Ring. Only one context may own it.
type Consumer struct {
	r *Ring
}

// New creates a Ring of size slots and returns its two handles.
func New(size int) (*Producer, *Consumer, error) {
	if size < 2 || size&(size-1) != 0 || size > 1<<16 {
		return nil, nil, ErrSize
	}
	r := &Ring{
		slots: make([]frame.Frame, size),
		mask:  uint32(size - 1),
	}
	return &Producer{r: r}, &Consumer{r: r}, nil
}

// Size returns N, the number of slots.
func (r *Ring) Size() int {
	return len(r.slots)
}

// Capacity returns N-1, the number of frames that fit at once.
func (r *Ring) Capacity() int {
	return len(r.slots) - 1
}

// Available returns the number of frames waiting to be popped.
func (r *Ring) Available() int {
	return int((r.write.Load() - r.read.Load()) & r.mask)
}

// FreeSpace returns how many more frames can be pushed.
func (r *Ring) FreeSpace() int {
	return len(r.slots) - r.Available() - 1
}

// Overflows returns the number of frames dropped because the ring was full.
func (r *Ring) Overflows() uint32 {
	return r.overflows.Load()
}

// Pushed returns the number of frames accepted.
func (r *Ring) Pushed() uint32 {
	return r.pushed.Load()
}

// Ring returns the shared queue for inspection.
func (p *Producer) Ring() *Ring {
	return p.r
}

// TryPush copies f into the ring. When the ring is full the incoming frame
// is discarded, the overflow counter is incremented and ErrOverflow is
// returned; queued frames are never overwritten.
func (p *Producer) TryPush(f *frame.Frame) error {
	r := p.r
	w := r.write.Load()
	next := (w + 1) & r.mask
	if next == r.read.Load() {
		r.overflows.Add(1)
		return ErrOverflow
	}
	r.slots[w] = *f
	r.write.Store(next)
	r.pushed.Add(1)
	return nil
}

// Ring returns the shared queue for inspection.
func (c *Consumer) Ring() *Ring {
	return c.r
}

// TryPop copies the oldest frame out of the ring, or returns ErrEmpty.
func (c *Consumer) TryPop() (f frame.Frame, err error) {
	r := c.r
	rd := r.read.Load()
	if rd == r.write.Load() {
		return f, ErrEmpty
	}
	f = r.slots[rd]
	r.read.Store((rd + 1) & r.mask)
	return f, nil
}

// Available returns the number of frames waiting to be popped.
func (c *Consumer) Available() int {
	return c.r.Available()
}

// FreeSpace returns how many more frames can be pushed.
func (p *Producer) FreeSpace() int {
	return p.r.FreeSpace()
}
