// Package sim drives sessions to completion with cancellation, trajectory
// metrics and timing, one at a time or as a concurrent batch.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
)

// Job is one named run. Metrics, when set, builds fresh metric instances
// for the run so jobs never share mutable state.
type Job struct {
	Name    string
	Problem ode.Problem[[]float64]
	Options session.Options[[]float64]
	Metrics func() []metrics.Metric
}

type Result struct {
	Name      string
	Method    string
	Samples   []ode.Sample[[]float64]
	Stats     session.Stats
	Truncated bool
	Metrics   map[string]float64
	Elapsed   time.Duration
}

// Final is the last sample of the run.
func (r *Result) Final() ode.Sample[[]float64] {
	return r.Samples[len(r.Samples)-1]
}

// Run materializes one job. The context is checked between samples; a
// cancelled run returns what it produced so far along with ctx.Err().
// Hitting Options.Limit is reported through Truncated, or as the error of
// a custom limit callback.
func Run(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()

	s, err := session.New[[]float64](ode.Vector{}, job.Problem, job.Options)
	if err != nil {
		return nil, fmt.Errorf("sim: %s: %w", job.Name, err)
	}

	it := s.Iter()
	limited, err := session.Limit[ode.Sample[[]float64]](it, s.Options().Limit, job.Options.LimitCallback)
	if err != nil {
		return nil, fmt.Errorf("sim: %s: %w", job.Name, err)
	}

	result := &Result{
		Name:    job.Name,
		Method:  s.Tableau().Name(),
		Samples: make([]ode.Sample[[]float64], 0, 64),
	}

	for {
		select {
		case <-ctx.Done():
			result.Stats = it.Stats()
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		smp, ok := limited.Next()
		if !ok {
			break
		}
		result.Samples = append(result.Samples, smp)
	}

	result.Stats = it.Stats()
	result.Truncated = limited.Truncated()
	if job.Metrics != nil {
		result.Metrics = metrics.Summarize(result.Samples, job.Metrics()...)
	}
	result.Elapsed = time.Since(start)

	if err := limited.Err(); err != nil {
		return result, fmt.Errorf("sim: %s: %w", job.Name, err)
	}
	return result, nil
}
