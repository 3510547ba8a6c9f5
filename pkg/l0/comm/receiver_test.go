package comm

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

type testStream struct {
	chunkCh chan []byte
}

func newTestStream() *testStream {
	return &testStream{chunkCh: make(chan []byte, 16)}
}

func (s *testStream) Read(p []byte) (int, error) {
	chunk, ok := <-s.chunkCh
	if !ok {
		return 0, io.EOF
	}
	return copy(p, chunk), nil
}

// inject queues data split into chunks of at most size bytes.
func (s *testStream) inject(data []byte, size int) {
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		s.chunkCh <- data[:n]
		data = data[n:]
	}
}

type receiverTestCtx struct {
	t        *testing.T
	stream   *testStream
	receiver *Receiver
	frameCh  chan *frame.Frame
	stateCh  chan SyncState
	errCh    chan error

	lock   sync.Mutex
	states []SyncState
}

func newReceiverTestCtx(t *testing.T) *receiverTestCtx {
	c := &receiverTestCtx{
		t:       t,
		stream:  newTestStream(),
		frameCh: make(chan *frame.Frame, 16),
		stateCh: make(chan SyncState, 64),
		errCh:   make(chan error, 1),
	}
	c.receiver = NewReceiver(c.stream)
	c.receiver.Timeout = 200 * time.Millisecond
	c.receiver.Handler = HandleFrameFunc(func(ctx context.Context, f *frame.Frame) {
		c.frameCh <- f
	})
	c.receiver.Notifier = StateChangedFunc(func(ctx context.Context, state SyncState) {
		c.lock.Lock()
		c.states = append(c.states, state)
		c.lock.Unlock()
		c.stateCh <- state
	})
	return c
}

func (c *receiverTestCtx) run(ctx context.Context) {
	go func() {
		c.errCh <- c.receiver.Run(ctx)
	}()
}

func (c *receiverTestCtx) expectFrames(seqs ...frame.Seq) *receiverTestCtx {
	for n, seq := range seqs {
		select {
		case f := <-c.frameCh:
			require.Equalf(c.t, testFrame(seq), f, "frame[%d] mismatch", n)
		case <-time.After(500 * time.Millisecond):
			c.t.Fatalf("frame[%d] timeout", n)
		}
	}
	return c
}

func (c *receiverTestCtx) waitState(state SyncState) *receiverTestCtx {
	for {
		select {
		case s := <-c.stateCh:
			if s == state {
				return c
			}
		case <-time.After(500 * time.Millisecond):
			c.t.Fatalf("wait state %s timeout", state)
		}
	}
}

func (c *receiverTestCtx) finish() {
	close(c.stream.chunkCh)
	select {
	case err := <-c.errCh:
		require.NoError(c.t, err)
	case <-time.After(500 * time.Millisecond):
		c.t.Fatal("receiver did not stop at EOF")
	}
}

func TestReceiveAcrossChunks(t *testing.T) {
	for _, size := range []int{1, 7, frame.Size, 256} {
		c := newReceiverTestCtx(t)
		c.run(context.Background())
		c.stream.inject(frameBytes(1, 2, 3, 4, 5), size)
		c.expectFrames(1, 2, 3, 4, 5)
		c.finish()

		require.Equal(t, SyncStateReady, c.receiver.State())
		require.Equal(t, ParserStats{Frames: 5}, c.receiver.Stats())
		c.lock.Lock()
		require.Equal(t, []SyncState{
			SyncStateReceiving,
			SyncStateReady,
			SyncStateReady | SyncStateReceiving,
		}, c.states[:3])
		c.lock.Unlock()
	}
}

func TestReceiveTimeoutDropsPartialFrame(t *testing.T) {
	c := newReceiverTestCtx(t)
	c.receiver.Timeout = 20 * time.Millisecond
	c.run(context.Background())
	c.stream.inject(frameBytes(1)[:17], 17)
	c.waitState(SyncStateReceiving).waitState(SyncStateSyncing)
	c.stream.inject(frameBytes(2), 64)
	c.expectFrames(2)
	c.finish()
	require.Equal(t, ParserStats{Frames: 1, SkippedBytes: 17, Timeouts: 1}, c.receiver.Stats())
	c.receiver.ResetStats()
	require.Equal(t, ParserStats{}, c.receiver.Stats())
}

func TestReceiveStopsWithContext(t *testing.T) {
	c := newReceiverTestCtx(t)
	ctx, cancel := context.WithCancel(context.Background())
	c.run(ctx)
	c.stream.inject(frameBytes(1), 64)
	c.expectFrames(1)
	cancel()
	select {
	case err := <-c.errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("receiver did not stop")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

// scriptedReader returns one scripted result per Read.
type scriptedReader struct {
	reads []scriptedRead
}

type scriptedRead struct {
	data []byte
	err  error
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.reads) == 0 {
		return 0, io.EOF
	}
	next := r.reads[0]
	r.reads = r.reads[1:]
	return copy(p, next.data), next.err
}

func TestReceiveWithReadTimeout(t *testing.T) {
	reader := &scriptedReader{reads: []scriptedRead{
		{data: frameBytes(1)[:20]},
		{err: timeoutErr{}},
		{data: frameBytes(2)[:12]},
		{},
		{data: frameBytes(2)[12:], err: io.EOF},
	}}
	var got []frame.Frame
	r := NewReceiver(reader)
	r.ReadTimeout = true
	r.Handler = HandleFrameFunc(func(ctx context.Context, f *frame.Frame) {
		got = append(got, *f)
	})
	require.NoError(t, r.Run(context.Background()))
	// the empty read counts as idle and drops the first half of frame 2 too
	require.Empty(t, got)
	require.Equal(t, ParserStats{SkippedBytes: 20 + 12 + 18, Timeouts: 2}, r.Stats())
}

func TestReceiveIntoCollector(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0x13, frame.Header0})
	stream.Write(frameBytes(1, 2, 3, 4, 5, 6))
	stream.Write(corrupt(frameBytes(7), 20))
	stream.Write(frameBytes(8, 9, 10))

	col := NewCollector(1000)
	r := NewReceiver(&stream)
	r.Handler = col
	require.NoError(t, r.Run(context.Background()))

	require.Equal(t, ParserStats{Frames: 9, ChecksumErrors: 1, SkippedBytes: 3 + frame.Size}, r.Stats())
	s := col.Summary()
	require.EqualValues(t, 9, s.Frames)
	require.EqualValues(t, 1, s.RawLost)
	require.True(t, s.Seq.Synced)
	require.EqualValues(t, 1, s.Seq.Overruns)
	require.EqualValues(t, 1, s.Seq.Lost)
}
