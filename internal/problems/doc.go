// Package problems is a catalog of named initial value problems used by the
// command line tools.
//
// Every entry implements [System], which satisfies ode.Derivative over
// []float64 state:
//
//   - growth models: [Exponential], [Logistic]
//   - oscillators: [Harmonic], [Damped], [VanDerPol], [Duffing]
//   - population and chaotic flows: [LotkaVolterra], [Lorenz], [Rossler]
//
// Systems with a closed form solution also implement [Exact], which the
// compare command uses to report global error.
//
//	sys, _ := problems.New("vanderpol")
//	p := problems.Problem(sys, sys.DefaultState(), 0)
package problems
