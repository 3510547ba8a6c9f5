package mqtt

import (
	"context"
	"io"

	"github.com/robotalks/sensorlink/pkg/l1"
)

// Topic suffixes under a bridge's name.
const (
	TopicCommand = "cmd"
	TopicMessage = "msg"
	TopicMeta    = "meta"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForClient sets topics using default convention for a bridge client:
// SubTopic = prefix/msg
// PubTopic = prefix/cmd
func (p *ReadWriter) ForClient(ref l1.BridgeRef) *ReadWriter {
	prefix := ref.Name() + "/"
	return p.WithTopics(prefix+TopicMessage, prefix+TopicCommand)
}

// ForBridge sets topics using default convention for the bridge itself:
// SubTopic = prefix/cmd
// PubTopic = prefix/msg
func (p *ReadWriter) ForBridge(ref l1.BridgeRef) *ReadWriter {
	prefix := ref.Name() + "/"
	return p.WithTopics(prefix+TopicCommand, prefix+TopicMessage)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	defer close(p.packetCh)
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.packetCh <- payload
}
