package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
	"github.com/robotalks/sensorlink/pkg/l0/hal"
	"github.com/robotalks/sensorlink/pkg/l0/ring"
)

type fakeBoard struct {
	now      uint32
	compare  uint32
	readCost uint32
	reads    int
}

func (b *fakeBoard) NowTicks() uint32           { return b.now }
func (b *fakeBoard) TickHz() uint32             { return DefaultTickHz }
func (b *fakeBoard) Counter() uint32            { return b.now }
func (b *fakeBoard) SetCompare(deadline uint32) { b.compare = deadline }

func (b *fakeBoard) ReadAxes() hal.Axes {
	b.reads++
	b.now += b.readCost
	v := int16(b.reads)
	return hal.Axes{
		Accel: [3]int16{v, -v, 2 * v},
		Gyro:  [3]int16{-2 * v, 3 * v, -3 * v},
	}
}

// fire advances the counter to the compare value plus latency and runs the ISR.
func (b *fakeBoard) fire(s *Sampler, latency uint32) {
	b.now = b.compare + latency
	s.HandleTimer()
}

func newTestSampler(t *testing.T, size int, period uint32) (*Sampler, *ring.Consumer, *fakeBoard) {
	p, c, err := ring.New(size)
	require.NoError(t, err)
	b := &fakeBoard{now: 1000, readCost: 7}
	return New(p, b, b, b, period), c, b
}

func TestDriftFreeDeadlines(t *testing.T) {
	s, _, b := newTestSampler(t, 16, 100)
	s.Start()
	require.EqualValues(t, 1100, b.compare)

	latencies := []uint32{0, 30, 5, 99, 1}
	for n, lat := range latencies {
		b.fire(s, lat)
		require.EqualValuesf(t, 1100+uint32(n+1)*100, b.compare, "deadline after interrupt %d", n)
	}
	require.Zero(t, s.Missed())
	require.EqualValues(t, len(latencies), s.Ticks())
}

func TestMissedPeriodsAreSkipped(t *testing.T) {
	s, _, b := newTestSampler(t, 16, 100)
	s.Start()
	// serviced 2.5 periods late
	b.fire(s, 250)
	require.EqualValues(t, 1400, b.compare)
	require.EqualValues(t, 2, s.Missed())
	b.fire(s, 0)
	require.EqualValues(t, 1500, b.compare)
}

func TestDeadlineWrapsCounter(t *testing.T) {
	s, _, b := newTestSampler(t, 16, 100)
	b.now = 0xFFFFFFC0
	s.Start()
	require.EqualValues(t, 0x24, b.compare)
	b.fire(s, 10)
	require.EqualValues(t, 0x88, b.compare)
	require.Zero(t, s.Missed())
}

func TestFrames(t *testing.T) {
	s, c, b := newTestSampler(t, 16, 100)
	s.Start()

	b.fire(s, 3)
	s.RecordSendTime(55)
	b.fire(s, 0)

	f0, err := c.TryPop()
	require.NoError(t, err)
	require.Equal(t, frame.Seq(0), f0.Seq)
	require.EqualValues(t, 1103, f0.Timestamp)
	require.EqualValues(t, 7, f0.ProcessTime)
	require.Zero(t, f0.PriorSendTime)
	require.Equal(t, [3]int16{1, -1, 2}, f0.Accel)
	require.Equal(t, [3]int16{-2, 3, -3}, f0.Gyro)

	f1, err := c.TryPop()
	require.NoError(t, err)
	require.Equal(t, frame.Seq(1), f1.Seq)
	require.EqualValues(t, 55, f1.PriorSendTime)

	for _, f := range []frame.Frame{f0, f1} {
		buf := frame.Encode(&f)
		require.Equal(t, buf[frame.ChecksumAt], f.Checksum)
	}
}

func TestOverflowKeepsSampling(t *testing.T) {
	s, c, b := newTestSampler(t, 4, 100)
	s.Start()
	for i := 0; i < 10; i++ {
		b.fire(s, 0)
	}
	r := c.Ring()
	require.Equal(t, 3, r.Available())
	require.EqualValues(t, 7, r.Overflows())
	require.EqualValues(t, 10, s.Ticks())

	// the next accepted frame shows the gap left by the drops
	for i := 0; i < 3; i++ {
		f, err := c.TryPop()
		require.NoError(t, err)
		require.Equal(t, frame.Seq(i), f.Seq)
	}
	b.fire(s, 0)
	f, err := c.TryPop()
	require.NoError(t, err)
	require.Equal(t, frame.Seq(10), f.Seq)
}

func TestSequenceContiguous(t *testing.T) {
	s, c, b := newTestSampler(t, 2, 10)
	s.seq = 65530
	s.Start()
	expect := frame.Seq(65530)
	for i := 0; i < 20; i++ {
		b.fire(s, 0)
		f, err := c.TryPop()
		require.NoError(t, err)
		require.Equal(t, expect, f.Seq)
		expect = expect.Next()
	}
	require.Equal(t, frame.Seq(14), expect)
}
