package metrics

import (
	"math"

	"github.com/san-kum/rkode/internal/ode"
)

// Stability is the fraction of samples whose components all stay finite
// and within threshold in magnitude.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(smp ode.Sample[[]float64]) {
	s.samples++
	for _, val := range smp.Y {
		if !(math.Abs(val) <= s.threshold) {
			s.violations++
			break
		}
	}
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
