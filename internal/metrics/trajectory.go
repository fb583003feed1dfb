package metrics

import (
	"math"

	"github.com/san-kum/rkode/internal/ode"
)

// Metric summarizes a trajectory one sample at a time.
type Metric interface {
	Name() string
	Observe(s ode.Sample[[]float64])
	Value() float64
	Reset()
}

// Hamiltonian is implemented by systems with a conserved energy.
type Hamiltonian interface {
	Energy(y []float64) float64
}

// Solution is a closed form y(t) for a fixed initial condition.
type Solution func(t float64) []float64

// EnergyDrift is the largest relative deviation from the first sample's
// energy.
type EnergyDrift struct {
	sys           Hamiltonian
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(sys Hamiltonian) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(s ode.Sample[[]float64]) {
	energy := e.sys.Energy(s.Y)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// GlobalError is the largest component-wise distance to a reference
// solution over the trajectory.
type GlobalError struct {
	exact Solution
	max   float64
}

func NewGlobalError(exact Solution) *GlobalError {
	return &GlobalError{exact: exact}
}

func (g *GlobalError) Name() string { return "global_error" }

func (g *GlobalError) Observe(s ode.Sample[[]float64]) {
	want := g.exact(s.T)
	for i, v := range s.Y {
		g.max = math.Max(g.max, math.Abs(v-want[i]))
	}
}

func (g *GlobalError) Value() float64 { return g.max }

func (g *GlobalError) Reset() { g.max = 0 }

// Summarize feeds every sample to each metric and returns their values by
// name.
func Summarize(samples []ode.Sample[[]float64], ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, s := range samples {
			m.Observe(s)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
