package metrics

import (
	"math"

	"github.com/san-kum/cosimrun/internal/cosim"
)

// Stability is the fraction of recorded instants at which every observed
// column stays finite and within threshold.
type Stability struct {
	name       string
	threshold  float64
	columns    []int
	violations int
	samples    int
}

// NewStability observes the given real column indices, or all of them when
// none are given.
func NewStability(threshold float64, columns ...int) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		columns:   columns,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ cosim.TimePoint, reals []float64) {
	s.samples++
	if len(s.columns) == 0 {
		for _, val := range reals {
			if !within(val, s.threshold) {
				s.violations++
				return
			}
		}
		return
	}
	for _, i := range s.columns {
		if i < len(reals) && !within(reals[i], s.threshold) {
			s.violations++
			return
		}
	}
}

func within(v, threshold float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= threshold
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
