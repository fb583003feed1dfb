package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
	"github.com/san-kum/rkode/internal/sim"
	"github.com/san-kum/rkode/internal/tableau"
)

// Study is the result of a step-halving convergence run. Orders[i] compares
// level i to level i-1; Orders[0] is NaN.
type Study struct {
	Method    string
	StepSizes []float64
	Errors    []float64
	Orders    []float64
}

// Observed is the order estimated from the two finest levels.
func (s Study) Observed() float64 {
	return s.Orders[len(s.Orders)-1]
}

type ConvergenceOptions struct {
	StepSize float64
	TFinal   float64
	// Levels is the number of step sizes, each half the previous.
	Levels  int
	Workers int
	Logger  *slog.Logger
}

// Convergence integrates problem with fixed steps h, h/2, h/4, ... and
// compares the final state with exact. Embedded methods are run on their
// high-order weights without error control.
func Convergence(ctx context.Context, problem ode.Problem[[]float64], exact metrics.Solution, tab *tableau.Tableau, opts ConvergenceOptions) (Study, error) {
	if opts.Levels < 2 {
		return Study{}, fmt.Errorf("%w: need at least 2 levels, got %d", ode.ErrInvalidOptions, opts.Levels)
	}
	if tab.IsAdaptive() {
		def := tab.Definition()
		def.Weights = def.Embedded.High
		def.Embedded = nil
		var err error
		if tab, err = tableau.New(def, opts.Logger); err != nil {
			return Study{}, err
		}
	}

	study := Study{
		Method:    tab.Name(),
		StepSizes: make([]float64, opts.Levels),
		Errors:    make([]float64, opts.Levels),
		Orders:    make([]float64, opts.Levels),
	}

	jobs := make([]sim.Job, opts.Levels)
	h := opts.StepSize
	for i := range jobs {
		study.StepSizes[i] = h
		span := opts.TFinal - problem.TInitial
		jobs[i] = sim.Job{
			Name:    fmt.Sprintf("%s/h=%g", tab.Name(), h),
			Problem: problem,
			Options: session.Options[[]float64]{
				Tableau:  tab,
				StepSize: h,
				TFinal:   opts.TFinal,
				MaxSteps: int(math.Ceil(span/h)) + 1,
				Limit:    int(math.Ceil(span/h)) + 2,
				Logger:   opts.Logger,
			},
		}
		h /= 2
	}

	results, err := sim.NewBatch(opts.Workers).Run(ctx, jobs)
	if err != nil {
		return Study{}, err
	}

	for i, res := range results {
		final := res.Final()
		want := exact(final.T)
		for j, v := range final.Y {
			study.Errors[i] = math.Max(study.Errors[i], math.Abs(v-want[j]))
		}
		study.Orders[i] = math.NaN()
		if i > 0 {
			study.Orders[i] = math.Log2(study.Errors[i-1] / study.Errors[i])
		}
	}
	return study, nil
}
