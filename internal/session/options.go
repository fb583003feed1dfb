package session

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/tableau"
)

const (
	DefaultMaxSteps       = 500
	DefaultLimit          = 1000
	DefaultSafetyFactor   = 0.9
	DefaultErrorThreshold = 1e-6

	// Adaptive step bounds relative to the initial step size.
	DefaultMinFraction = 0.01
	DefaultMaxMultiple = 10.0
)

// Options configures a session. Zero values select the defaults above.
type Options[S any] struct {
	// Method names a preset. Ignored when Tableau is set.
	Method  string
	Tableau *tableau.Tableau

	StepSize    float64
	StepSizeMin float64
	StepSizeMax float64

	ErrorThreshold float64
	SafetyFactor   float64

	// DisableLocalExtrapolation propagates the low-order solution of an
	// embedded pair.
	DisableLocalExtrapolation bool

	TFinal   float64
	MaxSteps int

	// Limit and LimitCallback bound the samples drawn by Solve and Limited.
	Limit         int
	LimitCallback LimitCallback[ode.Sample[S]]

	Logger   *slog.Logger
	Observer Observer
}

// Observer is notified of every accepted step.
type Observer interface {
	ObserveStep(st ode.StepStats)
}

func (o *Options[S]) applyDefaults(tab *tableau.Tableau) {
	if o.MaxSteps == 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if !tab.IsAdaptive() {
		return
	}
	if o.StepSizeMin == 0 {
		o.StepSizeMin = DefaultMinFraction * o.StepSize
	}
	if o.StepSizeMax == 0 {
		o.StepSizeMax = DefaultMaxMultiple * o.StepSize
	}
	if o.ErrorThreshold == 0 {
		o.ErrorThreshold = DefaultErrorThreshold
	}
	if o.SafetyFactor == 0 {
		o.SafetyFactor = DefaultSafetyFactor
	}
}

func (o *Options[S]) validate(tInitial float64) error {
	switch {
	case !(o.StepSize > 0) || math.IsInf(o.StepSize, 1):
		return fmt.Errorf("%w: stepSize must be positive and finite, got %g", ode.ErrInvalidOptions, o.StepSize)
	case math.IsNaN(o.TFinal) || math.IsInf(o.TFinal, 0):
		return fmt.Errorf("%w: tFinal must be finite, got %g", ode.ErrInvalidOptions, o.TFinal)
	case o.TFinal < tInitial:
		return fmt.Errorf("%w: tFinal %g before tInitial %g", ode.ErrInvalidOptions, o.TFinal, tInitial)
	case o.MaxSteps < 0:
		return fmt.Errorf("%w: maxSteps must not be negative, got %d", ode.ErrInvalidOptions, o.MaxSteps)
	case o.Limit < 1:
		return fmt.Errorf("%w: limit must be at least 1, got %d", ode.ErrInvalidOptions, o.Limit)
	}
	return nil
}
