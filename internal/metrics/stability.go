package metrics

import (
	"math"

	"github.com/san-kum/dynstab/internal/stability"
)

// Stability is the fraction of ascent samples whose static margin is at
// least threshold calibers.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stable_fraction",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ stability.Sample, m stability.Metrics) {
	if !m.Applicable() || math.IsNaN(m.SM) {
		return
	}
	s.samples++
	if m.SM < s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return math.NaN()
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
