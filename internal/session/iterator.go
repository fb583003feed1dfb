package session

import (
	"math"

	"github.com/san-kum/rkode/internal/integrators"
	"github.com/san-kum/rkode/internal/ode"
)

type phase int

const (
	phaseStart phase = iota
	phaseStepping
	phaseDone
)

// Stats accumulates over one pass.
type Stats struct {
	Steps               int
	Evaluations         int
	AccumulatedError    float64
	AccumulatedAttempts int
	AccuracyWarnings    int
}

// Iterator is one single-pass walk over a session's solution, in strictly
// increasing t. It is not safe for concurrent use.
type Iterator[S any] struct {
	s          *Session[S]
	stepper    *integrators.Stepper[S]
	controller *integrators.Controller[S]

	phase phase
	y     S
	t     float64
	h     float64
	stats Stats
	muted bool
}

// Next produces the next sample. The first sample is the initial condition.
func (it *Iterator[S]) Next() (ode.Sample[S], bool) {
	switch it.phase {
	case phaseStart:
		it.phase = phaseStepping
		return it.initial(), true
	case phaseStepping:
		if it.stats.Steps >= it.s.opts.MaxSteps {
			it.finish("max steps reached")
			return ode.Sample[S]{}, false
		}
		var (
			sample ode.Sample[S]
			ok     bool
		)
		if it.controller != nil {
			sample, ok = it.adaptiveStep()
		} else {
			sample, ok = it.fixedStep()
		}
		if !ok {
			it.finish("final time reached")
		}
		return sample, ok
	default:
		return ode.Sample[S]{}, false
	}
}

// Stats returns the counters of this pass so far.
func (it *Iterator[S]) Stats() Stats { return it.stats }

// Done reports whether the pass is exhausted.
func (it *Iterator[S]) Done() bool { return it.phase == phaseDone }

func (it *Iterator[S]) initial() ode.Sample[S] {
	sp := it.s.space
	sample := ode.Sample[S]{T: it.t, Y: sp.Add(sp.Zero(it.y), it.y)}
	if it.controller != nil {
		sample.Adaptive = &ode.AdaptiveInfo{StepSizeNext: it.h}
	}
	return sample
}

func (it *Iterator[S]) finish(reason string) {
	it.phase = phaseDone
	it.s.logger.Debug("integration finished", "reason", reason, "t", it.t,
		"steps", it.stats.Steps, "evaluations", it.stats.Evaluations)
}

// fixedStep places step n at tInitial + n*h so that t does not drift.
func (it *Iterator[S]) fixedStep() (ode.Sample[S], bool) {
	p := it.s.problem
	h := it.h
	tNext := p.TInitial + float64(it.stats.Steps+1)*h
	if tNext > it.s.opts.TFinal+timeSlack*h {
		return ode.Sample[S]{}, false
	}

	evals := it.stepper.Evaluations()
	it.y = it.stepper.Step(p.Derivative, it.y, it.t, h)
	it.t = tNext
	it.stats.Steps++
	it.stats.Evaluations += it.stepper.Evaluations() - evals

	it.observe(ode.StepStats{
		T:           it.t,
		StepSize:    h,
		Evaluations: it.stepper.Evaluations() - evals,
	})
	return ode.Sample[S]{T: it.t, Y: it.y, StepSize: h}, true
}

// adaptiveStep truncates the attempted step to land on TFinal, and stops
// once the remaining span is shorter than the minimum step size.
func (it *Iterator[S]) adaptiveStep() (ode.Sample[S], bool) {
	cfg := it.controller.Config()
	tFinal := it.s.opts.TFinal
	remaining := tFinal - it.t
	if remaining <= 0 || remaining < cfg.StepSizeMin*(1-timeSlack) {
		return ode.Sample[S]{}, false
	}

	evals := it.stepper.Evaluations()
	res := it.controller.Step(it.s.problem.Derivative, it.y, it.t, math.Min(it.h, remaining))

	it.y = res.Y
	it.t = res.T
	if math.Abs(tFinal-it.t) <= timeSlack*res.StepSize {
		it.t = tFinal
	}
	it.h = res.StepSizeNext
	it.stats.Steps++
	it.stats.Evaluations += it.stepper.Evaluations() - evals
	it.stats.AccumulatedError += res.StepError
	it.stats.AccumulatedAttempts += res.StepAttempts

	if res.Warning != nil {
		it.stats.AccuracyWarnings++
		it.s.logger.Warn("adaptive step accepted below requested accuracy",
			"t", res.Warning.T, "step_size", res.Warning.StepSize,
			"step_error", res.Warning.StepError, "threshold", res.Warning.Threshold)
	}
	it.s.logger.Debug("adaptive step", "t", it.t, "step_size", res.StepSize,
		"step_error", res.StepError, "attempts", res.StepAttempts)

	it.observe(ode.StepStats{
		T:             it.t,
		StepSize:      res.StepSize,
		StepError:     res.StepError,
		StepAttempts:  res.StepAttempts,
		Evaluations:   it.stepper.Evaluations() - evals,
		Embedded:      true,
		BelowAccuracy: res.Warning != nil,
	})

	return ode.Sample[S]{
		T:        it.t,
		Y:        it.y,
		StepSize: res.StepSize,
		Adaptive: &ode.AdaptiveInfo{
			StepError:           res.StepError,
			StepSizeNext:        res.StepSizeNext,
			StepAttempts:        res.StepAttempts,
			AccumulatedError:    it.stats.AccumulatedError,
			AccumulatedAttempts: it.stats.AccumulatedAttempts,
		},
	}, true
}

// mute suppresses observer notification while a step is computed but not
// handed to the consumer.
func (it *Iterator[S]) mute(on bool) { it.muted = on }

func (it *Iterator[S]) observe(st ode.StepStats) {
	if it.s.opts.Observer != nil && !it.muted {
		it.s.opts.Observer.ObserveStep(st)
	}
}
