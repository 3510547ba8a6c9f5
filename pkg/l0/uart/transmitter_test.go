package uart

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSink struct {
	armed   atomic.Bool
	arms    int
	disarms int
	wire    []byte
}

func (s *testSink) ArmTxReady()    { s.arms++; s.armed.Store(true) }
func (s *testSink) DisarmTxReady() { s.disarms++; s.armed.Store(false) }
func (s *testSink) WriteTx(b byte) { s.wire = append(s.wire, b) }

func packet(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*3 + 1)
	}
	return data
}

func TestSendDrainsAfterExactlyLengthInterrupts(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	data := packet(30)

	require.False(t, tx.IsBusy())
	require.NoError(t, tx.Send(data))
	require.True(t, tx.IsBusy())
	require.True(t, sink.armed.Load())

	for i := 0; i < 29; i++ {
		tx.HandleTxReady()
		require.Truef(t, tx.IsBusy(), "busy after interrupt %d", i+1)
	}
	tx.HandleTxReady()
	require.False(t, tx.IsBusy())
	require.False(t, sink.armed.Load())
	require.Equal(t, data, sink.wire)

	stats := tx.Stats()
	require.EqualValues(t, 30, stats.BytesSent)
	require.EqualValues(t, 1, stats.PacketsSent)
	require.EqualValues(t, 30, stats.InterruptsServiced)
	require.Zero(t, stats.SendRejections)
}

func TestSendWhileBusy(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	require.NoError(t, tx.Send(packet(4)))
	require.Equal(t, ErrBusy, tx.Send(packet(2)))
	require.Equal(t, ErrBusy, tx.Send(packet(2)))
	require.EqualValues(t, 2, tx.Stats().SendRejections)
	require.Equal(t, 1, sink.arms)

	for tx.IsBusy() {
		tx.HandleTxReady()
	}
	require.Equal(t, packet(4), sink.wire)
	require.NoError(t, tx.Send(packet(2)))
}

func TestInvalidArgument(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{name: "nil"},
		{name: "empty", data: []byte{}},
		{name: "too long", data: packet(BufferSize + 1)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sink := &testSink{}
			tx := New(sink)
			require.Equal(t, ErrInvalidArgument, tx.Send(c.data))
			require.False(t, tx.IsBusy())
			require.Zero(t, sink.arms)
			require.Equal(t, Stats{}, tx.Stats())
		})
	}
}

func TestFullBuffer(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	require.NoError(t, tx.Send(packet(BufferSize)))
	n := 0
	for tx.IsBusy() {
		tx.HandleTxReady()
		n++
	}
	require.Equal(t, BufferSize, n)
	require.Equal(t, packet(BufferSize), sink.wire)
}

func TestCallerBufferReusable(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	data := []byte{1, 2, 3}
	require.NoError(t, tx.Send(data))
	data[0], data[1], data[2] = 9, 9, 9
	for tx.IsBusy() {
		tx.HandleTxReady()
	}
	require.Equal(t, []byte{1, 2, 3}, sink.wire)
}

func TestSpuriousInterrupt(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	tx.HandleTxReady()
	require.Equal(t, 1, sink.disarms)
	require.Empty(t, sink.wire)
	require.Equal(t, Stats{}, tx.Stats())
}

type spinFunc func()

func (f spinFunc) Spin() { f() }

func TestWaitComplete(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	require.NoError(t, tx.WaitComplete(1))

	require.NoError(t, tx.Send(packet(8)))
	spins := 0
	tx.Spinner = spinFunc(func() { spins++ })
	require.Equal(t, ErrTimeout, tx.WaitComplete(5))
	require.Equal(t, 5, spins)

	// each spin lets one byte out
	tx.Spinner = spinFunc(func() { tx.HandleTxReady() })
	require.NoError(t, tx.WaitComplete(0))
	require.False(t, tx.IsBusy())
	require.Equal(t, packet(8), sink.wire)
}

func TestInterruptFromAnotherContext(t *testing.T) {
	sink := &testSink{}
	tx := New(sink)
	tx.Spinner = spinFunc(runtime.Gosched)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			// only the interrupt clears busy, so this check cannot go stale
			if sink.armed.Load() && tx.IsBusy() {
				tx.HandleTxReady()
			} else {
				runtime.Gosched()
			}
		}
	}()

	var want []byte
	for i := 0; i < 200; i++ {
		data := packet(i%BufferSize + 1)
		for tx.Send(data) == ErrBusy {
			runtime.Gosched()
		}
		want = append(want, data...)
	}
	require.NoError(t, tx.WaitComplete(0))
	close(stop)
	<-done
	require.Equal(t, want, sink.wire)
	require.EqualValues(t, 200, tx.Stats().PacketsSent)
	require.EqualValues(t, len(want), tx.Stats().BytesSent)
}
