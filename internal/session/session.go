// Package session drives an initial value problem from its initial time to
// a final time, producing the solution as a lazy sequence of samples.
package session

import (
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/san-kum/rkode/internal/integrators"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/tableau"
)

// timeSlack is the relative tolerance, in units of the step size, used when
// comparing step end times against TFinal.
const timeSlack = 1e-9

// Session is a validated integration request. It is immutable; every call
// to Iter starts a fresh pass from the initial condition.
type Session[S any] struct {
	space   ode.Space[S]
	problem ode.Problem[S]
	tab     *tableau.Tableau
	opts    Options[S]
	control integrators.ControllerConfig
	logger  *slog.Logger
}

// New resolves the method, applies defaults and checks the options and the
// shape of the derivative before any step is taken.
func New[S any](space ode.Space[S], problem ode.Problem[S], opts Options[S]) (*Session[S], error) {
	tab := opts.Tableau
	if tab == nil {
		var err error
		if tab, err = tableau.Lookup(opts.Method); err != nil {
			return nil, err
		}
	}
	if problem.Derivative == nil {
		return nil, fmt.Errorf("%w: problem has no derivative", ode.ErrInvalidOptions)
	}

	opts.applyDefaults(tab)
	if err := opts.validate(problem.TInitial); err != nil {
		return nil, err
	}

	s := &Session[S]{
		space:   space,
		problem: problem,
		tab:     tab,
		opts:    opts,
		logger:  opts.Logger.With("method", tab.Name()),
	}

	if tab.IsAdaptive() {
		s.control = integrators.ControllerConfig{
			StepSizeMin:        opts.StepSizeMin,
			StepSizeMax:        opts.StepSizeMax,
			ErrorThreshold:     opts.ErrorThreshold,
			SafetyFactor:       opts.SafetyFactor,
			LocalExtrapolation: !opts.DisableLocalExtrapolation,
		}
		// Validates the controller configuration once up front.
		if _, err := integrators.NewController(integrators.NewStepper(space, tab), s.control); err != nil {
			return nil, err
		}
	}

	out := problem.Derivative.Eval(problem.YInitial, problem.TInitial)
	if got, want := space.Dim(out), space.Dim(problem.YInitial); got != want {
		return nil, fmt.Errorf("%w: derivative returned dimension %d, initial state has %d", ode.ErrTypeMismatch, got, want)
	}
	return s, nil
}

func (s *Session[S]) Tableau() *tableau.Tableau { return s.tab }

func (s *Session[S]) Options() Options[S] { return s.opts }

// Iter starts a new pass over the solution.
func (s *Session[S]) Iter() *Iterator[S] {
	it := &Iterator[S]{
		s:       s,
		stepper: integrators.NewStepper(s.space, s.tab),
		y:       s.problem.YInitial,
		t:       s.problem.TInitial,
		h:       s.opts.StepSize,
	}
	if s.tab.IsAdaptive() {
		// Config was validated in New.
		it.controller, _ = integrators.NewController(it.stepper, s.control)
		it.h = math.Min(s.control.StepSizeMax, math.Max(s.control.StepSizeMin, it.h))
	}
	return it
}

// All adapts a fresh Iter to a range-over-func sequence.
func (s *Session[S]) All() iter.Seq[ode.Sample[S]] {
	return func(yield func(ode.Sample[S]) bool) {
		it := s.Iter()
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Limited starts a new pass capped at Options.Limit samples.
func (s *Session[S]) Limited() *Limited[ode.Sample[S]] {
	cb := s.opts.LimitCallback
	if cb == nil {
		cb = s.warnLimit
	}
	// Limit was validated in New.
	l, _ := Limit[ode.Sample[S]](s.Iter(), s.opts.Limit, cb)
	return l
}

func (s *Session[S]) warnLimit(pending ode.Sample[S], delivered int, _ Sequence[ode.Sample[S]]) error {
	s.logger.Warn("solution exited early; raise the limit if more samples are needed",
		"limit", delivered, "next_t", pending.T)
	return nil
}

// Solve materializes a capped pass into a slice. The error is the limit
// callback's result when the cap was hit.
func (s *Session[S]) Solve() ([]ode.Sample[S], error) {
	l := s.Limited()
	out := make([]ode.Sample[S], 0, s.expectedSamples())
	for {
		v, ok := l.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, l.Err()
}

func (s *Session[S]) expectedSamples() int {
	n := s.opts.MaxSteps + 1
	if !s.tab.IsAdaptive() {
		n = min(n, int((s.opts.TFinal-s.problem.TInitial)/s.opts.StepSize)+2)
	}
	return min(n, s.opts.Limit+1)
}

// Solve builds a session and materializes it.
func Solve[S any](space ode.Space[S], problem ode.Problem[S], opts Options[S]) ([]ode.Sample[S], error) {
	s, err := New(space, problem, opts)
	if err != nil {
		return nil, err
	}
	return s.Solve()
}
