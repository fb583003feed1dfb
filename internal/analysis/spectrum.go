package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/rkode/internal/ode"
)

var (
	ErrTooFewSamples = errors.New("rkode: too few samples for analysis")
	ErrNonUniform    = errors.New("rkode: samples are not uniformly spaced")
)

// PowerSpectrum returns |X_k| for k = 0..n/2 of the real signal data.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency, in cycles per unit t, of the
// largest non-constant spectral peak of one state component. The samples
// must come from a fixed-step pass.
func DominantFrequency(samples []ode.Sample[[]float64], component int) (float64, error) {
	if len(samples) < 4 {
		return 0, fmt.Errorf("%w: need at least 4, got %d", ErrTooFewSamples, len(samples))
	}
	h := samples[1].T - samples[0].T
	if h <= 0 {
		return 0, fmt.Errorf("%w: first interval is %g", ErrNonUniform, h)
	}
	for i := 2; i < len(samples); i++ {
		if dt := samples[i].T - samples[i-1].T; math.Abs(dt-h) > 1e-9*h {
			return 0, fmt.Errorf("%w: interval %d is %g, first is %g", ErrNonUniform, i, dt, h)
		}
	}

	data := make([]float64, len(samples))
	mean := 0.0
	for i, s := range samples {
		if component < 0 || component >= len(s.Y) {
			return 0, fmt.Errorf("rkode: component %d out of range for dimension %d", component, len(s.Y))
		}
		data[i] = s.Y[component]
		mean += data[i]
	}
	mean /= float64(len(data))
	for i := range data {
		data[i] -= mean
	}

	ps := PowerSpectrum(data)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	return float64(peak) / (float64(len(data)) * h), nil
}
