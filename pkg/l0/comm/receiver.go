package comm

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// readChunk is the size of a single Read from the link.
const readChunk = 256

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *frame.Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *frame.Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, fr *frame.Frame) {
	f(ctx, fr)
}

// StateNotifier is called when frame stream state changed.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// Receiver reads frames from the link.
type Receiver struct {
	Reader      io.Reader
	Handler     FrameHandler
	Notifier    StateNotifier
	Timeout     time.Duration
	ReadTimeout bool // set to true if Reader already supports timeout with Read

	state SyncState
	lock  sync.RWMutex

	syncTimer <-chan time.Time
	parser    Parser
}

// NewReceiver creates a Receiver.
func NewReceiver(r io.Reader) *Receiver {
	return &Receiver{
		Reader:  r,
		Timeout: 100 * time.Millisecond,
	}
}

// State gets the state.
func (r *Receiver) State() SyncState {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

// Stats gets the receive counters.
func (r *Receiver) Stats() ParserStats {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.parser.Stats()
}

// ResetStats clears the receive counters.
func (r *Receiver) ResetStats() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.parser.ResetStats()
}

// Run processes the link in the background. It returns nil once the
// Reader reaches io.EOF.
func (r *Receiver) Run(ctx context.Context) error {
	r.updateTimer(r.apply(ctx, r.parse((*Parser).Reset)))

	if r.ReadTimeout {
		buf := make([]byte, readChunk)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := r.Reader.Read(buf)
				r.feed(ctx, buf[:n])
				if err != nil {
					if os.IsTimeout(err) {
						r.apply(ctx, r.parse((*Parser).Timeout))
						continue
					}
					return eofIsDone(err)
				}
				if n == 0 {
					r.apply(ctx, r.parse((*Parser).Timeout))
				}
			}
		}
	}

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			r.feed(ctx, chunk)
		case err := <-errCh:
			return eofIsDone(err)
		case <-ctx.Done():
			return ctx.Err()
		case <-r.syncTimer:
			r.updateTimer(r.apply(ctx, r.parse((*Parser).Timeout)))
		}
	}
}

func eofIsDone(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func (r *Receiver) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, readChunk)
		n, err := r.Reader.Read(buf)
		if n > 0 {
			select {
			case chunkCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (r *Receiver) feed(ctx context.Context, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	var pr ParseResult
	for _, b := range chunk {
		b := b
		pr = r.apply(ctx, r.parse(func(p *Parser) ParseResult { return p.Parse(b) }))
	}
	r.updateTimer(pr)
}

// updateTimer arms the idle timer while a frame is partially received.
// It is rearmed per chunk, not per byte.
func (r *Receiver) updateTimer(pr ParseResult) {
	if r.ReadTimeout {
		return
	}
	switch pr.WhatAboutTimer() {
	case TimerRestart:
		r.syncTimer = time.After(r.Timeout)
	case TimerStop:
		r.syncTimer = nil
	}
}

func (r *Receiver) parse(step func(*Parser) ParseResult) ParseResult {
	r.lock.Lock()
	defer r.lock.Unlock()
	return step(&r.parser)
}

func (r *Receiver) apply(ctx context.Context, pr ParseResult) ParseResult {
	var notifier StateNotifier
	r.lock.Lock()
	if r.state != pr.State {
		r.state = pr.State
		notifier = r.Notifier
	}
	r.lock.Unlock()

	if notifier != nil {
		glog.V(3).Infof("link state %s", pr.State)
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Err != nil {
		glog.Warningf("frame rejected: %v", pr.Err)
	}
	if pr.Frame != nil {
		glog.V(3).Infof("frame %d ts %d", pr.Frame.Seq, pr.Frame.Timestamp)
		if h := r.Handler; h != nil {
			h.HandleFrame(ctx, pr.Frame)
		}
	}
	return pr
}
