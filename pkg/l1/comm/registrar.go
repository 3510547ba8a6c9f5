package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink/pkg/framework"
	"github.com/robotalks/sensorlink/pkg/l1"
	"github.com/robotalks/sensorlink/pkg/l1/msgs"
)

// Registrar implements l1.Registrar with Pipe and integrated with Loop.
// Received commands are posted to the loop as l1.CommandMsg.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		if typed.IsReply() {
			glog.V(2).Infof("unexpected reply %x ignored", typed.TypeId)
			return nil
		}
		loopCtl := fx.LoopCtlFrom(ctx)
		if typed.IsCommand() {
			loopCtl.PostMessage(&l1.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
		} else {
			loopCtl.PostMessage(msg)
		}
		loopCtl.TriggerNext()
		return nil
	})
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux registers the bridge with multiple Registrars.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// SendEvent implements l1.Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// EventWriter is a write-only l1.Registrar. It publishes events to a
// PacketWriter (a recording file, websocket clients) and never receives
// commands.
type EventWriter struct {
	Writer PacketWriter

	lock sync.Mutex
}

// NewEventWriter creates an EventWriter.
func NewEventWriter(w PacketWriter) *EventWriter {
	return &EventWriter{Writer: w}
}

// SendEvent implements l1.Registrar.
func (w *EventWriter) SendEvent(ctx context.Context, msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		panic("message is not an event")
	}
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.Writer.WritePacket(pkt)
}

// AddToLoop implements LoopAdder. The writer is closed when the loop stops.
func (w *EventWriter) AddToLoop(loop *fx.Loop) {
	if adder, ok := w.Writer.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := w.Writer.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	if closer, ok := w.Writer.(io.Closer); ok {
		loop.AddRunnable(fx.NamedRun("event-writer", fx.RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			w.lock.Lock()
			defer w.lock.Unlock()
			closer.Close()
			return ctx.Err()
		})))
	}
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
			mctx.MessageTaken()
			if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
				glog.Warningf("reply unsupported command error: %v", err)
			}
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
