package comm

import (
	"sync"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
)

// ByteStreamStats are the counters of a ByteStream.
type ByteStreamStats struct {
	Bytes uint64        `json:"bytes"`
	Seq   diag.SeqStats `json:"seq"`
}

// ByteStream accounts a raw 0..255 counting byte stream, as produced by
// seqfeed, to measure loss on the bare serial line without framing.
// It is an io.Writer so it can be the target of io.Copy.
type ByteStream struct {
	lock    sync.Mutex
	bytes   uint64
	tracker *diag.SeqTracker
}

// NewByteStream creates a ByteStream.
func NewByteStream() *ByteStream {
	return &ByteStream{tracker: diag.NewSeqTracker(diag.SeqBits8)}
}

// Write implements io.Writer.
func (s *ByteStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, b := range p {
		s.tracker.Observe(uint32(b))
	}
	s.bytes += uint64(len(p))
	return len(p), nil
}

// Stats returns the counters.
func (s *ByteStream) Stats() ByteStreamStats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return ByteStreamStats{Bytes: s.bytes, Seq: s.tracker.Stats()}
}

// Reset clears the counters and requires a new pre-sync.
func (s *ByteStream) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.bytes = 0
	s.tracker.Reset()
}
