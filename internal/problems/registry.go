package problems

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/rkode/internal/ode"
)

var (
	ErrUnknownProblem = errors.New("rkode: unknown problem")
	ErrUnknownParam   = errors.New("rkode: unknown problem parameter")
)

// System is a right-hand side over vector state with tunable parameters.
type System interface {
	ode.Derivative[[]float64]

	Dim() int
	DefaultState() []float64
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Exact is implemented by systems with a closed form solution.
type Exact interface {
	Solution(y0 []float64, t0, t float64) []float64
}

// Info describes a catalog entry and its suggested integration window.
type Info struct {
	Name     string
	Summary  string
	TFinal   float64
	StepSize float64
}

type entry struct {
	Info
	build func() System
}

const twoPi = 2 * math.Pi

var catalog = map[string]entry{}

func register(name, summary string, tFinal, step float64, build func() System) {
	catalog[name] = entry{Info{name, summary, tFinal, step}, build}
}

func init() {
	register("exponential", "y' = k y", 2, 0.1, func() System { return NewExponential(1) })
	register("decay", "y' = -k y", 10, 0.5, func() System { return NewExponential(-0.5) })
	register("logistic", "y' = r y (1 - y/K)", 10, 0.25, func() System { return NewLogistic() })
	register("harmonic", "x'' = -w^2 x", twoPi, 0.1, func() System { return NewHarmonic() })
	register("damped", "x'' = -2 z w x' - w^2 x", 20, 0.1, func() System { return NewDamped() })
	register("vanderpol", "x'' = mu (1 - x^2) x' - x", 20, 0.05, func() System { return NewVanDerPol() })
	register("duffing", "x'' = -d x' - a x - b x^3 + g cos(w t)", 50, 0.05, func() System { return NewDuffing() })
	register("lotka-volterra", "predator and prey populations", 15, 0.05, func() System { return NewLotkaVolterra() })
	register("lorenz", "Lorenz butterfly attractor", 20, 0.01, func() System { return NewLorenz() })
	register("rossler", "Rossler attractor", 50, 0.05, func() System { return NewRossler() })
}

// New builds a fresh instance of the named system.
func New(name string) (System, error) {
	e, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return e.build(), nil
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Info, bool) {
	e, ok := catalog[name]
	return e.Info, ok
}

// Names lists the catalog in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(catalog))
}

// List returns every entry sorted by name.
func List() []Info {
	out := make([]Info, 0, len(catalog))
	for _, name := range Names() {
		out = append(out, catalog[name].Info)
	}
	return out
}

// Problem pairs sys with an initial condition. A nil y0 selects the
// system's default state.
func Problem(sys System, y0 []float64, t0 float64) ode.Problem[[]float64] {
	if y0 == nil {
		y0 = sys.DefaultState()
	}
	return ode.Problem[[]float64]{Derivative: sys, YInitial: y0, TInitial: t0}
}

func unknownParam(system, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParam, system, name)
}
