package ode

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Space is the arithmetic a stepper needs from a state type. Each method
// returns a fresh value and leaves its arguments untouched.
type Space[S any] interface {
	// Zero returns the additive identity shaped like the given state.
	Zero(like S) S
	Add(a, b S) S
	Scale(a S, k float64) S
	// Norm is used for step error estimates.
	Norm(a S) float64
	// Dim is 1 for scalars and the component count for vectors.
	Dim(a S) int
}

// Scalar is the one-dimensional space over float64.
type Scalar struct{}

func (Scalar) Zero(float64) float64 { return 0 }
func (Scalar) Add(a, b float64) float64 { return a + b }
func (Scalar) Scale(a float64, k float64) float64 { return a * k }
func (Scalar) Norm(a float64) float64 { return math.Abs(a) }
func (Scalar) Dim(float64) int { return 1 }

// Vector is the fixed-length space over []float64. The error norm is the
// max-norm of the components.
type Vector struct{}

func (Vector) Zero(like []float64) []float64 {
	return make([]float64, len(like))
}

func (Vector) Add(a, b []float64) []float64 {
	return floats.AddTo(make([]float64, len(a)), a, b)
}

func (Vector) Scale(a []float64, k float64) []float64 {
	return floats.ScaleTo(make([]float64, len(a)), k, a)
}

func (Vector) Norm(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return floats.Norm(a, math.Inf(1))
}

func (Vector) Dim(a []float64) int { return len(a) }

// Derivative is the right-hand side f of y' = f(y, t).
type Derivative[S any] interface {
	Eval(y S, t float64) S
}

// Func is a time-dependent derivative.
type Func[S any] func(y S, t float64) S

func (f Func[S]) Eval(y S, t float64) S { return f(y, t) }

// AutonomousFunc is a derivative that does not depend on t. The time
// argument is never passed to it.
type AutonomousFunc[S any] func(y S) S

func (f AutonomousFunc[S]) Eval(y S, _ float64) S { return f(y) }

// Problem is an initial value problem y' = f(y, t), y(TInitial) = YInitial.
type Problem[S any] struct {
	Derivative Derivative[S]
	YInitial   S
	TInitial   float64
}

// NewProblem builds a problem starting at t = 0.
func NewProblem[S any](f Derivative[S], y0 S) Problem[S] {
	return Problem[S]{Derivative: f, YInitial: y0}
}

// AdaptiveInfo carries the error-control fields of a sample. It is only
// present for embedded methods.
type AdaptiveInfo struct {
	StepError           float64
	StepSizeNext        float64
	StepAttempts        int
	AccumulatedError    float64
	AccumulatedAttempts int
}

// Sample is one point of a solution. The first sample of a sequence is the
// initial condition and has zero StepSize.
type Sample[S any] struct {
	T        float64
	Y        S
	StepSize float64
	Adaptive *AdaptiveInfo
}

// StepStats describes one accepted step without its state.
type StepStats struct {
	T             float64
	StepSize      float64
	StepError     float64
	StepAttempts  int
	Evaluations   int
	Embedded      bool
	BelowAccuracy bool
}
