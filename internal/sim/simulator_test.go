package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func decayJob(name, method string) Job {
	f := ode.AutonomousFunc[[]float64](func(y []float64) []float64 { return []float64{-y[0]} })
	return Job{
		Name:    name,
		Problem: ode.NewProblem[[]float64](f, []float64{1}),
		Options: session.Options[[]float64]{
			Method:   method,
			StepSize: 0.1,
			TFinal:   1,
			Logger:   quiet,
		},
		Metrics: func() []metrics.Metric {
			return []metrics.Metric{metrics.NewGlobalError(func(t float64) []float64 {
				return []float64{math.Exp(-t)}
			})}
		},
	}
}

func TestRunFixedStep(t *testing.T) {
	res, err := Run(context.Background(), decayJob("decay", "rk4"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.Samples) != 11 {
		t.Errorf("expected 11 samples, got %d", len(res.Samples))
	}
	if res.Method != "rk4" {
		t.Errorf("method %q, want rk4", res.Method)
	}
	if res.Stats.Steps != 10 || res.Stats.Evaluations != 40 {
		t.Errorf("stats %+v, want 10 steps and 40 evaluations", res.Stats)
	}
	if res.Truncated {
		t.Error("run should not be truncated")
	}
	if got := res.Metrics["global_error"]; got > 1e-6 {
		t.Errorf("global error %g too large", got)
	}
	if got := res.Final().T; math.Abs(got-1) > 1e-12 {
		t.Errorf("final t %v, want 1", got)
	}
}

func TestRunLimit(t *testing.T) {
	job := decayJob("decay", "euler")
	job.Options.Limit = 5

	res, err := Run(context.Background(), job)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Samples) != 5 || !res.Truncated {
		t.Errorf("got %d samples truncated=%v, want 5 truncated", len(res.Samples), res.Truncated)
	}

	errStop := errors.New("stop")
	job.Options.LimitCallback = func(ode.Sample[[]float64], int, session.Sequence[ode.Sample[[]float64]]) error {
		return errStop
	}
	res, err = Run(context.Background(), job)
	if !errors.Is(err, errStop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if res == nil || len(res.Samples) != 5 {
		t.Error("partial result should be returned with the callback error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, decayJob("decay", "rk4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Samples) != 0 {
		t.Errorf("cancelled run produced %d samples", len(res.Samples))
	}
}

func TestRunUnknownMethod(t *testing.T) {
	_, err := Run(context.Background(), decayJob("decay", "nope"))
	if !errors.Is(err, ode.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestBatchKeepsJobOrder(t *testing.T) {
	methods := []string{"euler", "midpoint", "rk4", "dp45", "bs23"}
	jobs := make([]Job, len(methods))
	for i, m := range methods {
		jobs[i] = decayJob(m, m)
	}

	results, err := NewBatch(2).Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	for i, res := range results {
		if res.Name != methods[i] {
			t.Errorf("result %d is %q, want %q", i, res.Name, methods[i])
		}
	}
	if results[0].Metrics["global_error"] <= results[2].Metrics["global_error"] {
		t.Error("euler should be less accurate than rk4")
	}
}

func TestBatchFailure(t *testing.T) {
	jobs := []Job{decayJob("ok", "rk4"), decayJob("bad", "nope")}
	if _, err := NewBatch(0).Run(context.Background(), jobs); !errors.Is(err, ode.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}
