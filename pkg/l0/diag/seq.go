package diag

// PresyncSteps is how many consecutive +1 steps arm the accounting.
const PresyncSteps = 4

// Sequence widths.
const (
	SeqBits8  = 8
	SeqBits16 = 16
)

// SeqStats are the counters of a SeqTracker.
type SeqStats struct {
	Synced   bool   `json:"synced"`
	Received uint64 `json:"received"`
	Overruns uint64 `json:"overruns"`
	Lost     uint64 `json:"lost"`
	Burst    uint64 `json:"burst"`
	MaxBurst uint64 `json:"max_burst"`
}

// SeqTracker accounts gaps in a wrapping sequence stream. Nothing is counted
// until PresyncSteps consecutive +1 steps have been seen, so a stream joined
// mid-transmission does not produce bogus losses.
type SeqTracker struct {
	mask uint32

	steps    int
	prev     uint32
	havePrev bool
	expected uint32
	stats    SeqStats
}

// NewSeqTracker creates a tracker for sequences of the given bit width.
func NewSeqTracker(bits uint) *SeqTracker {
	if bits == 0 || bits > 32 {
		bits = 32
	}
	return &SeqTracker{mask: uint32(uint64(1)<<bits - 1)}
}

// Observe accounts one received value and returns the number of values
// found missing before it.
func (t *SeqTracker) Observe(v uint32) (lost uint32) {
	v &= t.mask
	if !t.stats.Synced {
		t.presync(v)
		return 0
	}
	t.stats.Received++
	if d := (v - t.expected) & t.mask; d != 0 {
		lost = d
		t.stats.Overruns++
		t.stats.Lost += uint64(d)
		t.stats.Burst = 1
	} else {
		t.stats.Burst++
	}
	if t.stats.Burst > t.stats.MaxBurst {
		t.stats.MaxBurst = t.stats.Burst
	}
	t.expected = (v + 1) & t.mask
	return
}

func (t *SeqTracker) presync(v uint32) {
	if t.havePrev && v == (t.prev+1)&t.mask {
		t.steps++
	} else {
		t.steps = 0
	}
	t.prev, t.havePrev = v, true
	if t.steps >= PresyncSteps {
		t.stats.Synced = true
		t.stats.Received = 1
		t.stats.Burst, t.stats.MaxBurst = 1, 1
		t.expected = (v + 1) & t.mask
	}
}

// Synced reports whether the accounting is armed.
func (t *SeqTracker) Synced() bool {
	return t.stats.Synced
}

// Expected returns the next value the tracker expects once synced.
func (t *SeqTracker) Expected() uint32 {
	return t.expected
}

// Stats returns a copy of the counters.
func (t *SeqTracker) Stats() SeqStats {
	return t.stats
}

// Reset drops all state and requires a new pre-sync.
func (t *SeqTracker) Reset() {
	*t = SeqTracker{mask: t.mask}
}
