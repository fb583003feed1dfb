package integrators

import (
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/tableau"
)

// Stepper applies one explicit Runge-Kutta step described by a tableau to
// states of type S.
type Stepper[S any] struct {
	space ode.Space[S]
	tab   *tableau.Tableau
	evals int
	k     []S
}

func NewStepper[S any](space ode.Space[S], tab *tableau.Tableau) *Stepper[S] {
	return &Stepper[S]{
		space: space,
		tab:   tab,
		k:     make([]S, tab.NumStages()),
	}
}

func (s *Stepper[S]) Tableau() *tableau.Tableau { return s.tab }

// Evaluations is the number of derivative calls made so far.
func (s *Stepper[S]) Evaluations() int { return s.evals }

// Step returns y(t+h) using the single weight set, or the high-order set of
// an embedded tableau.
func (s *Stepper[S]) Step(f ode.Derivative[S], y S, t, h float64) S {
	s.stages(f, y, t, h)
	return s.combine(y, h, s.tab.Weight)
}

// StepEmbedded returns both solutions of an embedded pair from one set of
// stage evaluations.
func (s *Stepper[S]) StepEmbedded(f ode.Derivative[S], y S, t, h float64) (high, low S) {
	s.stages(f, y, t, h)
	return s.combine(y, h, s.tab.Weight), s.combine(y, h, s.tab.LowWeight)
}

// stages fills k_i = f(y + h*sum_j a_ij*k_j, t + h*c_i).
func (s *Stepper[S]) stages(f ode.Derivative[S], y S, t, h float64) {
	sp := s.space
	s.k[0] = f.Eval(y, t)
	for i := 1; i < s.tab.NumStages(); i++ {
		acc := sp.Zero(y)
		for j := 0; j < i; j++ {
			if a := s.tab.A(i, j); a != 0 {
				acc = sp.Add(acc, sp.Scale(s.k[j], a))
			}
		}
		s.k[i] = f.Eval(sp.Add(y, sp.Scale(acc, h)), t+h*s.tab.Node(i))
	}
	s.evals += s.tab.NumStages()
}

func (s *Stepper[S]) combine(y S, h float64, weight func(int) float64) S {
	sp := s.space
	acc := sp.Zero(y)
	for i := range s.k {
		if b := weight(i); b != 0 {
			acc = sp.Add(acc, sp.Scale(s.k[i], b))
		}
	}
	return sp.Add(y, sp.Scale(acc, h))
}
