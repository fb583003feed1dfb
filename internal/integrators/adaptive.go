package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/rkode/internal/ode"
)

// ControllerConfig bounds and tunes the step size controller.
type ControllerConfig struct {
	StepSizeMin    float64
	StepSizeMax    float64
	ErrorThreshold float64
	SafetyFactor   float64

	// LocalExtrapolation propagates the high-order solution instead of the
	// low-order one. The error estimate is the same either way.
	LocalExtrapolation bool
}

func (c ControllerConfig) validate() error {
	switch {
	case !(c.StepSizeMin > 0):
		return fmt.Errorf("%w: stepSizeMin must be positive, got %g", ode.ErrInvalidOptions, c.StepSizeMin)
	case !(c.StepSizeMax >= c.StepSizeMin):
		return fmt.Errorf("%w: stepSizeMax %g below stepSizeMin %g", ode.ErrInvalidOptions, c.StepSizeMax, c.StepSizeMin)
	case !(c.ErrorThreshold > 0):
		return fmt.Errorf("%w: errorThreshold must be positive, got %g", ode.ErrInvalidOptions, c.ErrorThreshold)
	case !(c.SafetyFactor > 0 && c.SafetyFactor <= 1):
		return fmt.Errorf("%w: safetyFactor must be in (0,1], got %g", ode.ErrInvalidOptions, c.SafetyFactor)
	}
	return nil
}

// Controller performs error-controlled steps with an embedded tableau.
type Controller[S any] struct {
	stepper *Stepper[S]
	cfg     ControllerConfig
}

// StepResult is an accepted adaptive step.
type StepResult[S any] struct {
	Y            S
	T            float64
	StepSize     float64
	StepError    float64
	StepSizeNext float64

	// StepAttempts counts rejected attempts before this one was accepted.
	StepAttempts int

	// Warning is set when the step was accepted at StepSizeMin with an
	// error above the threshold.
	Warning *ode.AccuracyWarning
}

func NewController[S any](stepper *Stepper[S], cfg ControllerConfig) (*Controller[S], error) {
	if !stepper.Tableau().IsAdaptive() {
		return nil, fmt.Errorf("%w: method %q has no embedded weights", ode.ErrInvalidOptions, stepper.Tableau().Name())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Controller[S]{stepper: stepper, cfg: cfg}, nil
}

func (c *Controller[S]) Config() ControllerConfig { return c.cfg }

// Step advances from (y, t) trying step size h first. Rejected attempts are
// retried with the adapted, smaller step size until one is accepted or the
// step size reaches StepSizeMin, where the step is accepted regardless.
func (c *Controller[S]) Step(f ode.Derivative[S], y S, t, h float64) StepResult[S] {
	sp := c.stepper.space
	h = c.clamp(h)

	attempts := 0
	for {
		high, low := c.stepper.StepEmbedded(f, y, t, h)
		stepErr := sp.Norm(sp.Add(high, sp.Scale(low, -1)))
		failed := !(stepErr <= c.cfg.ErrorThreshold)
		next := c.adapt(h, stepErr, failed)

		if failed && h > c.cfg.StepSizeMin {
			h = next
			attempts++
			continue
		}

		res := StepResult[S]{
			Y:            low,
			T:            t + h,
			StepSize:     h,
			StepError:    stepErr,
			StepSizeNext: next,
			StepAttempts: attempts,
		}
		if c.cfg.LocalExtrapolation {
			res.Y = high
		}
		if failed {
			res.Warning = &ode.AccuracyWarning{
				T:         t,
				StepSize:  h,
				StepError: stepErr,
				Threshold: c.cfg.ErrorThreshold,
			}
		}
		return res
	}
}

// adapt computes h * safety * |threshold/err|^(1/p), with p = order+1 after
// a success and p = order after a failure, clamped to the configured range.
func (c *Controller[S]) adapt(h, stepErr float64, failed bool) float64 {
	p := float64(c.stepper.Tableau().Order() + 1)
	if failed {
		p = float64(c.stepper.Tableau().Order())
	}
	ratio := math.Abs(c.cfg.ErrorThreshold / stepErr)
	return c.clamp(h * c.cfg.SafetyFactor * math.Pow(ratio, 1/p))
}

func (c *Controller[S]) clamp(h float64) float64 {
	if math.IsNaN(h) {
		return c.cfg.StepSizeMin
	}
	return math.Min(c.cfg.StepSizeMax, math.Max(c.cfg.StepSizeMin, h))
}
