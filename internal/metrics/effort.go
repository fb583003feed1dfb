package metrics

import "github.com/san-kum/rkode/internal/ode"

// MeanStepSize averages the step size over the samples after the first.
type MeanStepSize struct {
	sum   float64
	steps int
}

func NewMeanStepSize() *MeanStepSize { return &MeanStepSize{} }

func (m *MeanStepSize) Name() string { return "mean_step_size" }

func (m *MeanStepSize) Observe(s ode.Sample[[]float64]) {
	if s.StepSize == 0 {
		return
	}
	m.sum += s.StepSize
	m.steps++
}

func (m *MeanStepSize) Value() float64 {
	if m.steps == 0 {
		return 0
	}
	return m.sum / float64(m.steps)
}

func (m *MeanStepSize) Reset() {
	m.sum = 0
	m.steps = 0
}
