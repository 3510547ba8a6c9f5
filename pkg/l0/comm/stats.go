package comm

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxSamples bounds the samples kept per series.
const DefaultMaxSamples = 100000

// Stat summarizes one series.
type Stat struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdev"`
}

// series keeps the most recent samples, up to its capacity.
type series struct {
	values []float64
	next   int
	max    int
}

func newSeries(max int) *series {
	if max <= 0 {
		max = DefaultMaxSamples
	}
	return &series{max: max}
}

func (s *series) add(v float64) {
	if len(s.values) < s.max {
		s.values = append(s.values, v)
		return
	}
	s.values[s.next] = v
	s.next = (s.next + 1) % s.max
}

func (s *series) reset() {
	s.values, s.next = s.values[:0], 0
}

func (s *series) stat() (st Stat) {
	st.Count = len(s.values)
	if st.Count == 0 {
		return
	}
	st.Min, st.Max = floats.Min(s.values), floats.Max(s.values)
	sorted := append([]float64(nil), s.values...)
	sort.Float64s(sorted)
	st.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if st.Count%2 == 0 {
		// Empirical picks the lower middle sample
		st.Median = (st.Median + sorted[st.Count/2]) / 2
	}
	if st.Count == 1 {
		st.Mean = sorted[0]
		return
	}
	st.Mean, st.StdDev = stat.MeanStdDev(sorted, nil)
	return
}
