package comm

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

func TestSeriesStat(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		expect Stat
	}{
		{name: "empty"},
		{name: "single", values: []float64{3}, expect: Stat{Count: 1, Mean: 3, Median: 3, Min: 3, Max: 3}},
		{name: "odd", values: []float64{5, 1, 3}, expect: Stat{Count: 3, Mean: 3, Median: 3, Min: 1, Max: 5, StdDev: 2}},
		{name: "even", values: []float64{4, 1, 3, 2}, expect: Stat{Count: 4, Mean: 2.5, Median: 2.5, Min: 1, Max: 4, StdDev: 1.2909944487358056}},
		{name: "unsorted", values: []float64{9, 2, 7, 4, 3}, expect: Stat{Count: 5, Mean: 5, Median: 4, Min: 2, Max: 9, StdDev: 2.9154759474226504}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newSeries(0)
			for _, v := range c.values {
				s.add(v)
			}
			st := s.stat()
			require.Equal(t, c.expect.Count, st.Count)
			require.InDelta(t, c.expect.Mean, st.Mean, 1e-9)
			require.InDelta(t, c.expect.Median, st.Median, 1e-9)
			require.InDelta(t, c.expect.Min, st.Min, 1e-9)
			require.InDelta(t, c.expect.Max, st.Max, 1e-9)
			require.InDelta(t, c.expect.StdDev, st.StdDev, 1e-9)
		})
	}
}

func TestSeriesKeepsLatest(t *testing.T) {
	s := newSeries(3)
	for v := 1; v <= 5; v++ {
		s.add(float64(v))
	}
	st := s.stat()
	require.Equal(t, 3, st.Count)
	require.EqualValues(t, 3, st.Min)
	require.EqualValues(t, 5, st.Max)
}

func collectorFrame(seq frame.Seq, ts, process, send uint32) *frame.Frame {
	f := &frame.Frame{Seq: seq, Timestamp: ts, ProcessTime: process, PriorSendTime: send}
	f.Seal()
	return f
}

func TestCollectorSummary(t *testing.T) {
	// 1 kHz ticks, one frame every 50 ms, frame 6 lost
	col := NewCollector(1000)
	for seq := frame.Seq(1); seq <= 10; seq++ {
		if seq == 6 {
			continue
		}
		col.Add(collectorFrame(seq, uint32(seq)*50, 2, uint32(seq%2)))
	}
	s := col.Summary()
	require.EqualValues(t, 9, s.Frames)
	require.EqualValues(t, 1, s.RawLost)
	require.EqualValues(t, 1, s.Seq.Overruns)
	require.EqualValues(t, 1, s.Seq.Lost)
	require.EqualValues(t, 4, s.Seq.MaxBurst)

	require.InDelta(t, 450, s.DurationMs, 1e-9)
	require.InDelta(t, 8/0.45, s.FramesPerSec, 1e-9)
	require.InDelta(t, 8/0.45*frame.Size, s.BytesPerSec, 1e-9)

	require.Equal(t, 9, s.ProcessMs.Count)
	require.InDelta(t, 2, s.ProcessMs.Mean, 1e-9)
	require.Zero(t, s.ProcessMs.StdDev)
	require.EqualValues(t, 0, s.SendMs.Min)
	require.EqualValues(t, 1, s.SendMs.Max)
	require.EqualValues(t, 3, s.TotalMs.Max)
	require.Equal(t, 8, s.IntervalMs.Count)
	require.InDelta(t, 50, s.IntervalMs.Median, 1e-9)
	require.InDelta(t, 100, s.IntervalMs.Max, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Contains(t, decoded, "interval_ms")
	require.Contains(t, decoded, "raw_lost")
	require.EqualValues(t, 9, decoded["frames"])
}

func TestCollectorSequenceWrap(t *testing.T) {
	col := NewCollector(1000)
	for seq := 65530; seq < 65540; seq++ {
		col.Add(collectorFrame(frame.Seq(seq), uint32(seq), 0, 0))
	}
	s := col.Summary()
	require.Zero(t, s.RawLost)
	require.Zero(t, s.Seq.Lost)
	require.True(t, s.Seq.Synced)
}

func TestCollectorTail(t *testing.T) {
	col := NewCollector(1000)
	require.Empty(t, col.Tail(0))
	for seq := frame.Seq(0); seq < DefaultTailSize+5; seq++ {
		col.Add(collectorFrame(seq, 0, 0, 0))
	}
	tail := col.Tail(0)
	require.Len(t, tail, DefaultTailSize)
	require.EqualValues(t, 5, tail[0].Seq)
	require.EqualValues(t, DefaultTailSize+4, tail[len(tail)-1].Seq)

	last3 := col.Tail(3)
	require.Len(t, last3, 3)
	require.EqualValues(t, DefaultTailSize+2, last3[0].Seq)

	col.Reset()
	require.Empty(t, col.Tail(0))
	require.Equal(t, Summary{}, col.Summary())
}

func TestByteStream(t *testing.T) {
	s := NewByteStream()
	var in []byte
	for v := 250; v < 260; v++ {
		in = append(in, byte(v))
	}
	// 4..6 lost
	in = append(in, 7, 8, 9)
	n, err := s.Write(in)
	require.NoError(t, err)
	require.Equal(t, len(in), n)

	st := s.Stats()
	require.EqualValues(t, 13, st.Bytes)
	require.True(t, st.Seq.Synced)
	require.EqualValues(t, 1, st.Seq.Overruns)
	require.EqualValues(t, 3, st.Seq.Lost)
	require.EqualValues(t, 6, st.Seq.MaxBurst)

	s.Reset()
	require.Equal(t, ByteStreamStats{}, s.Stats())
}
