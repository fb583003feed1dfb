package optim

import (
	"context"
	"math"

	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
	"github.com/san-kum/rkode/internal/sim"
)

const (
	ParamErrorThreshold = "error_threshold"
	ParamSafetyFactor   = "safety_factor"
)

// Tuning is the cheapest adaptive configuration that met the accuracy
// target.
type Tuning struct {
	ErrorThreshold float64
	SafetyFactor   float64
	Evaluations    int
	GlobalError    float64
}

// TuneAdaptive grid-searches error thresholds and safety factors for the
// adaptive method in base, scoring each point by derivative evaluations.
// Points whose global error against exact exceeds target, or whose pass
// was cut short by the limit, are infeasible.
func TuneAdaptive(
	ctx context.Context,
	problem ode.Problem[[]float64],
	exact metrics.Solution,
	base session.Options[[]float64],
	target float64,
	thresholds, safety []float64,
) (Tuning, error) {
	g, err := NewGridSearch([]string{ParamErrorThreshold, ParamSafetyFactor}, [][]float64{thresholds, safety})
	if err != nil {
		return Tuning{}, err
	}

	run := func(ctx context.Context, p map[string]float64) (*sim.Result, error) {
		opts := base
		opts.ErrorThreshold = p[ParamErrorThreshold]
		opts.SafetyFactor = p[ParamSafetyFactor]
		return sim.Run(ctx, sim.Job{
			Name:    "tune",
			Problem: problem,
			Options: opts,
			Metrics: func() []metrics.Metric { return []metrics.Metric{metrics.NewGlobalError(exact)} },
		})
	}

	params, _, err := g.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		res, err := run(ctx, p)
		if err != nil {
			return 0, err
		}
		if res.Truncated || !(res.Metrics["global_error"] <= target) {
			return math.Inf(1), nil
		}
		return float64(res.Stats.Evaluations), nil
	})
	if err != nil {
		return Tuning{}, err
	}

	res, err := run(ctx, params)
	if err != nil {
		return Tuning{}, err
	}
	return Tuning{
		ErrorThreshold: params[ParamErrorThreshold],
		SafetyFactor:   params[ParamSafetyFactor],
		Evaluations:    res.Stats.Evaluations,
		GlobalError:    res.Metrics["global_error"],
	}, nil
}
