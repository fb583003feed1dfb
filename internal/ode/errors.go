package ode

import (
	"errors"
	"fmt"
)

// Domain errors for tableau construction and session setup.
var (
	// ErrInvalidTableau indicates a Butcher tableau with inconsistent shape or sums.
	ErrInvalidTableau = errors.New("rkode: invalid butcher tableau")

	// ErrUnknownPreset indicates a method name missing from the preset catalog.
	ErrUnknownPreset = errors.New("rkode: unknown method preset")

	// ErrTypeMismatch indicates the derivative returns a state shaped unlike the initial state.
	ErrTypeMismatch = errors.New("rkode: derivative output does not match initial state")

	// ErrInvalidOptions indicates session options outside their valid range.
	ErrInvalidOptions = errors.New("rkode: invalid session options")
)

// TableauError wraps ErrInvalidTableau with the offending field.
type TableauError struct {
	Field  string
	Index  int
	Reason string
}

func (e *TableauError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s: %s", ErrInvalidTableau, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s[%d]: %s", ErrInvalidTableau, e.Field, e.Index, e.Reason)
}

func (e *TableauError) Unwrap() error {
	return ErrInvalidTableau
}

// WeightSumWarning reports weights that do not sum to 1. It is logged, never returned.
type WeightSumWarning struct {
	Set string
	Sum float64
}

func (w WeightSumWarning) Error() string {
	return fmt.Sprintf("rkode: %s weights sum to %.12g, not 1", w.Set, w.Sum)
}

// AccuracyWarning reports a step accepted at the minimum step size even though
// its error estimate exceeds the threshold. It is logged, never returned.
type AccuracyWarning struct {
	T         float64
	StepSize  float64
	StepError float64
	Threshold float64
}

func (w AccuracyWarning) Error() string {
	return fmt.Sprintf("rkode: step at t=%.6g accepted at minimum size %.3g with error %.3g above threshold %.3g",
		w.T, w.StepSize, w.StepError, w.Threshold)
}
