package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/msgs"
)

// packetPipe is one end of an in-memory packet connection.
// Closing either end closes both.
type packetPipe struct {
	in     chan []byte
	out    chan []byte
	closed *sync.Once
	done   chan struct{}
}

func newPacketPipes() (*packetPipe, *packetPipe) {
	a2b, b2a := make(chan []byte, 16), make(chan []byte, 16)
	done, once := make(chan struct{}), &sync.Once{}
	return &packetPipe{in: b2a, out: a2b, closed: once, done: done},
		&packetPipe{in: a2b, out: b2a, closed: once, done: done}
}

func (p *packetPipe) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

func (p *packetPipe) WritePacket(pkt []byte) error {
	p.out <- pkt
	return nil
}

func (p *packetPipe) Close() error {
	p.closed.Do(func() { close(p.done) })
	return nil
}

// echoBridge answers LinkStatsQuery and leaves everything else to
// UnsupportedCommands.
type echoBridge struct {
	frames uint64
}

func (b *echoBridge) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
			if _, ok := cmd.Command.Msg().(*msgs.LinkStatsQuery); ok {
				mctx.MessageTaken()
				cmd.Command.Done(&msgs.LinkStatsReply{Stats: &msgs.LinkStats{Frames: b.frames}})
			}
		}
	}))
	return nil
}

func TestBridgeConnCommands(t *testing.T) {
	bridgeEnd, clientEnd := newPacketPipes()

	var reg Registrar
	reg.Init(bridgeEnd)
	bridgeLoop := fx.NewLoop()
	bridgeLoop.Interval = time.Hour
	bridgeLoop.Add(&reg, &UnsupportedCommands{})
	bridgeLoop.AddController(fx.PrLvControl, &echoBridge{frames: 42})

	var conn BridgeConn
	conn.Init(clientEnd)
	eventCh := make(chan fx.Message, 1)
	clientLoop := fx.NewLoop()
	clientLoop.Interval = time.Hour
	clientLoop.Add(&conn)
	clientLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			mctx.MessageTaken()
			eventCh <- mctx.CurrentMessage()
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridgeLoop.Run(ctx)
	go clientLoop.Run(ctx)

	res := <-conn.DoCommand(&msgs.LinkStatsQuery{}).ResultChan()
	require.NoError(t, res.Err)
	require.Equal(t, &msgs.LinkStatsReply{Stats: &msgs.LinkStats{Frames: 42}}, res.Msg)

	res = <-conn.DoCommand(&msgs.LinkReset{}).ResultChan()
	require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())
	require.Equal(t, 0, conn.Pending())

	require.NoError(t, reg.SendEvent(ctx, &msgs.FrameSample{Seq: 5}))
	select {
	case ev := <-eventCh:
		require.Equal(t, &msgs.FrameSample{Seq: 5}, ev)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

type discardPackets struct{}

func (discardPackets) ReadPacket() ([]byte, error) { select {} }
func (discardPackets) WritePacket([]byte) error    { return nil }

func TestBridgeConnExpiration(t *testing.T) {
	var conn BridgeConn
	conn.Init(discardPackets{})
	conn.Expiration = time.Millisecond
	f1 := conn.DoCommand(&msgs.LinkStatsQuery{})
	f2 := conn.DoCommand(&msgs.FrameTailQuery{Count: 1})
	require.Equal(t, 2, conn.Pending())
	require.Equal(t, 0, conn.PurgeExpired(time.Now().Add(-time.Hour)))
	require.Equal(t, 2, conn.PurgeExpired(time.Now().Add(time.Second)))
	for _, f := range []l1.CommandFuture{f1, f2} {
		res := <-f.ResultChan()
		require.Equal(t, context.DeadlineExceeded, res.Err)
	}
	require.Equal(t, 0, conn.Pending())
}

type failingWriter struct {
	err  error
	pkts [][]byte
}

func (w *failingWriter) WritePacket(pkt []byte) error {
	w.pkts = append(w.pkts, pkt)
	return w.err
}

func TestEventWriterAndMux(t *testing.T) {
	good := &failingWriter{}
	bad := &failingWriter{err: errors.New("disk full")}
	mux := &RegistrarMux{}
	mux.Add(NewEventWriter(good), NewEventWriter(bad))

	err := mux.SendEvent(context.Background(), &msgs.LinkStats{Frames: 1})
	require.Error(t, err)
	require.True(t, errors.Is(err, bad.err))
	require.Len(t, good.pkts, 1)
	require.Len(t, bad.pkts, 1)

	typed, err := msgs.DecodeTyped(good.pkts[0])
	require.NoError(t, err)
	require.Equal(t, msgs.LinkStatsEventTypeID, typed.TypeId)

	require.Panics(t, func() {
		NewEventWriter(good).SendEvent(context.Background(), &msgs.LinkReset{})
	})
}

func TestPipeAnswersUndecodableCommand(t *testing.T) {
	local, remote := newPacketPipes()
	p := NewPipe(local)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()

	unknown := &msgs.Typed{TypeId: msgs.GroupCustom | 1, Sequence: 9}
	pkt, err := unknown.Encode()
	require.NoError(t, err)
	remote.WritePacket([]byte{0xff, 0xff, 0xff})
	remote.WritePacket(pkt)

	reply, err := remote.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(reply)
	require.NoError(t, err)
	require.Equal(t, msgs.CommandErrTypeID, typed.TypeId)
	require.EqualValues(t, 9, typed.Sequence)

	remote.Close()
	require.NoError(t, <-errCh)
}
