// Package analysis characterizes solutions and methods:
//
//   - [Convergence]: observed order of accuracy from a step-halving study
//   - [LyapunovExponent]: largest Lyapunov exponent by two-trajectory renormalization
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a uniformly sampled component
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(sys, tableau.Must("rk4"), y0, analysis.LyapunovOptions{
//		StepSize: 0.01,
//		Duration: 50,
//	})
package analysis
