package comm

import (
	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

// Parser assembles frames from received bytes.
type Parser struct {
	state  parseState
	synced bool
	buf    frame.Buffer
	n      int
	stats  ParserStats
}

// ParserStats are the cumulative receive counters.
type ParserStats struct {
	Frames         uint64 `json:"frames"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	SkippedBytes   uint64 `json:"skipped_bytes"`
	Timeouts       uint64 `json:"timeouts"`
}

// SyncState indicates the state of communication.
type SyncState int

const (
	// SyncStateSyncing means no valid frame has been seen yet.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the stream is synchronized on frame boundaries.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a frame is partially received.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the stream is synchronized.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// String implements fmt.Stringer.
func (s SyncState) String() string {
	switch {
	case s.IsReady() && s.IsReceiving():
		return "ready+receiving"
	case s.IsReady():
		return "ready"
	case s.IsReceiving():
		return "receiving"
	}
	return "syncing"
}

// TimerAction defines what to do with timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer.
	TimerRestart
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State SyncState
	Frame *frame.Frame
	// Err is frame.ErrChecksum when a complete frame was rejected.
	Err error
}

// WhatAboutTimer decides what to do with timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.State.IsReceiving() {
		return TimerRestart
	}
	return TimerStop
}

type parseState int

const (
	stateHeader0 parseState = iota // waiting for 0xAA
	stateHeader1                   // waiting for 0x55
	stateBody                      // collecting the rest of the frame
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	var s SyncState
	if p.synced {
		s |= SyncStateReady
	}
	if p.state != stateHeader0 {
		s |= SyncStateReceiving
	}
	return s
}

// Stats returns the counters.
func (p *Parser) Stats() ParserStats {
	return p.stats
}

// ResetStats clears the counters.
func (p *Parser) ResetStats() {
	p.stats = ParserStats{}
}

// Reset drops any partial frame and forgets synchronization.
func (p *Parser) Reset() (pr ParseResult) {
	p.state, p.n, p.synced = stateHeader0, 0, false
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Err = p.parseByte(b)
	pr.State = p.State()
	return
}

// Timeout notifies the parser the line has been idle too long. A partial
// frame is dropped as its remaining bytes are not coming.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateHeader0 {
		p.stats.Timeouts++
		p.stats.SkippedBytes += uint64(p.n)
		p.state, p.n = stateHeader0, 0
	}
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (*frame.Frame, error) {
	switch p.state {
	case stateHeader0:
		if b == frame.Header0 {
			p.buf[0], p.n, p.state = b, 1, stateHeader1
		} else {
			p.stats.SkippedBytes++
		}
	case stateHeader1:
		switch b {
		case frame.Header1:
			p.buf[1], p.n, p.state = b, 2, stateBody
		case frame.Header0:
			// the previous 0xAA was noise, this one may start a frame
			p.stats.SkippedBytes++
		default:
			p.stats.SkippedBytes += 2
			p.state, p.n = stateHeader0, 0
		}
	case stateBody:
		p.buf[p.n] = b
		p.n++
		if p.n < frame.Size {
			break
		}
		p.state, p.n = stateHeader0, 0
		f, err := frame.Decode(p.buf[:])
		if err != nil {
			p.stats.ChecksumErrors++
			p.rescan()
			return nil, err
		}
		p.stats.Frames++
		p.synced = true
		return &f, nil
	}
	return nil, nil
}

// rescan feeds the bytes after a rejected header back through the parser,
// so a real frame starting inside the rejected one is not lost. Fewer than
// frame.Size bytes remain, so no frame can complete here.
func (p *Parser) rescan() {
	rest := p.buf
	p.stats.SkippedBytes++
	for _, b := range rest[1:] {
		p.parseByte(b)
	}
}
