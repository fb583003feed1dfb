package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rkode/internal/integrators"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/tableau"
)

const defaultPerturbation = 1e-8

type LyapunovOptions struct {
	StepSize float64
	Duration float64
	// Transient is integrated before separation growth is averaged.
	Transient float64
	// Perturbation is the initial and renormalized separation. Zero means 1e-8.
	Perturbation float64
}

// LyapunovExponent estimates the largest Lyapunov exponent of f from y0.
// A reference and a perturbed trajectory are stepped with the same fixed
// step; after every step the log growth of their separation is accumulated
// and the perturbed state is pulled back to the initial distance along the
// current separation direction.
func LyapunovExponent(f ode.Derivative[[]float64], tab *tableau.Tableau, y0 []float64, opts LyapunovOptions) (float64, error) {
	if len(y0) == 0 {
		return 0, fmt.Errorf("%w: empty initial state", ode.ErrInvalidOptions)
	}
	if opts.StepSize <= 0 || opts.Duration <= 0 || opts.Transient < 0 {
		return 0, fmt.Errorf("%w: step size and duration must be positive, transient non-negative", ode.ErrInvalidOptions)
	}
	d0 := opts.Perturbation
	if d0 == 0 {
		d0 = defaultPerturbation
	}

	ref := integrators.NewStepper[[]float64](ode.Vector{}, tab)
	pert := integrators.NewStepper[[]float64](ode.Vector{}, tab)

	h := opts.StepSize
	y := append([]float64(nil), y0...)
	t := 0.0

	for n := int(opts.Transient / h); n > 0; n-- {
		y = ref.Step(f, y, t, h)
		t += h
	}

	yp := append([]float64(nil), y...)
	yp[0] += d0

	steps := int(opts.Duration / h)
	if steps == 0 {
		return 0, fmt.Errorf("%w: duration %g is shorter than one step", ode.ErrInvalidOptions, opts.Duration)
	}

	sumLog := 0.0
	for range steps {
		y = ref.Step(f, y, t, h)
		yp = pert.Step(f, yp, t, h)
		t += h

		d := floats.Distance(yp, y, 2)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, fmt.Errorf("rkode: separation degenerated to %g at t=%g", d, t)
		}
		sumLog += math.Log(d / d0)

		// yp = y + (yp - y) * d0/d
		floats.Sub(yp, y)
		floats.Scale(d0/d, yp)
		floats.Add(yp, y)
	}

	return sumLog / (float64(steps) * h), nil
}
