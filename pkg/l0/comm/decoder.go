package comm

import (
	"context"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// Decoder is an io.Writer parsing the bytes written into frames. It is
// the in-process counterpart of Receiver for producers that push bytes,
// like the simulated board. Decoder is not safe for concurrent use.
type Decoder struct {
	Handler FrameHandler

	parser Parser
}

// NewDecoder creates a Decoder delivering frames to h.
func NewDecoder(h FrameHandler) *Decoder {
	return &Decoder{Handler: h}
}

// Write implements io.Writer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		if pr := d.parser.Parse(b); pr.Frame != nil && d.Handler != nil {
			d.Handler.HandleFrame(context.Background(), pr.Frame)
		}
	}
	return len(p), nil
}

// Stats returns the parser counters.
func (d *Decoder) Stats() ParserStats {
	return d.parser.Stats()
}

// State returns the parser sync state.
func (d *Decoder) State() SyncState {
	return d.parser.State()
}

// Frames is a FrameHandler appending a copy of every frame.
type Frames []frame.Frame

// HandleFrame implements FrameHandler.
func (f *Frames) HandleFrame(_ context.Context, fr *frame.Frame) {
	*f = append(*f, *fr)
}
