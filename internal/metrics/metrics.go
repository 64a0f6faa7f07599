// Package metrics aggregates the real-valued trajectory of a run as it is
// recorded.
package metrics

import (
	"math"

	"github.com/san-kum/cosimrun/internal/cosim"
)

// Metric folds each recorded instant into a single value.
type Metric interface {
	Name() string
	Observe(t cosim.TimePoint, reals []float64)
	Value() float64
	Reset()
}

// ColumnStats covers the finite samples of a column. NaN and infinite
// samples are only counted in NonFinite.
type ColumnStats struct {
	Name      string  `json:"name"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Final     float64 `json:"final"`
	Samples   int     `json:"samples"`
	NonFinite int     `json:"non_finite,omitempty"`
}

// Summary tracks min, max, mean and last finite value of every real column
// and drives any additional metrics. It satisfies recorder.Observer.
type Summary struct {
	names   []string
	sums    []float64
	stats   []ColumnStats
	metrics []Metric
}

func NewSummary(names []string, extra ...Metric) *Summary {
	s := &Summary{
		names:   names,
		sums:    make([]float64, len(names)),
		stats:   make([]ColumnStats, len(names)),
		metrics: extra,
	}
	s.Reset()
	return s
}

func (s *Summary) OnRecord(t cosim.TimePoint, values *cosim.VariableValues) {
	reals := values.Real.Values
	for i := range s.stats {
		if i >= len(reals) {
			break
		}
		v := reals[i]
		st := &s.stats[i]
		if !finite(v) {
			st.NonFinite++
			continue
		}
		st.Samples++
		st.Final = v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		s.sums[i] += v
		st.Mean = s.sums[i] / float64(st.Samples)
	}
	for _, m := range s.metrics {
		m.Observe(t, reals)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Columns returns the stats of every column with at least one finite sample.
func (s *Summary) Columns() []ColumnStats {
	out := make([]ColumnStats, 0, len(s.stats))
	for _, st := range s.stats {
		if st.Samples > 0 {
			out = append(out, st)
		}
	}
	return out
}

// Values returns the current value of every additional metric by name.
func (s *Summary) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Summary) Reset() {
	for i, name := range s.names {
		s.stats[i] = ColumnStats{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
		s.sums[i] = 0
	}
	for _, m := range s.metrics {
		m.Reset()
	}
}
