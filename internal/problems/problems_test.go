package problems

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/session"
)

func TestCatalogShapes(t *testing.T) {
	for _, info := range List() {
		t.Run(info.Name, func(t *testing.T) {
			sys, err := New(info.Name)
			if err != nil {
				t.Fatal(err)
			}
			y0 := sys.DefaultState()
			if len(y0) != sys.Dim() {
				t.Errorf("default state has %d components, Dim is %d", len(y0), sys.Dim())
			}
			if got := len(sys.Eval(y0, 0)); got != sys.Dim() {
				t.Errorf("derivative has %d components, Dim is %d", got, sys.Dim())
			}
			if info.TFinal <= 0 || info.StepSize <= 0 {
				t.Errorf("bad window tFinal=%g h=%g", info.TFinal, info.StepSize)
			}
			if info.Summary == "" {
				t.Error("missing summary")
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	_, err := New("pendulum")
	if !errors.Is(err, ErrUnknownProblem) {
		t.Fatalf("expected ErrUnknownProblem, got %v", err)
	}
	if _, ok := Lookup("pendulum"); ok {
		t.Error("lookup found an unknown problem")
	}
}

func TestNewReturnsFreshInstances(t *testing.T) {
	a, _ := New("vanderpol")
	b, _ := New("vanderpol")
	if err := a.SetParam("mu", 5); err != nil {
		t.Fatal(err)
	}
	if b.GetParams()["mu"] != 1 {
		t.Errorf("instances share parameters: mu=%g", b.GetParams()["mu"])
	}
}

func TestSetParam(t *testing.T) {
	for _, name := range Names() {
		sys, _ := New(name)
		for param := range sys.GetParams() {
			if err := sys.SetParam(param, 0.75); err != nil {
				t.Errorf("%s: SetParam(%q): %v", name, param, err)
			}
			if got := sys.GetParams()[param]; got != 0.75 {
				t.Errorf("%s: %s = %g after set", name, param, got)
			}
		}
		if err := sys.SetParam("nope", 1); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("%s: expected ErrUnknownParam, got %v", name, err)
		}
	}
}

func TestLorenzDerivative(t *testing.T) {
	l := NewLorenz()
	dx := l.Eval([]float64{1, 2, 3}, 0)
	want := []float64{10, 1*(28-3) - 2, 2 - 8.0}
	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-12 {
			t.Errorf("component %d: got %g want %g", i, dx[i], want[i])
		}
	}
}

func TestDuffingIsTimeDependent(t *testing.T) {
	d := NewDuffing()
	y := []float64{0, 0}
	a := d.Eval(y, 0)[1]
	b := d.Eval(y, math.Pi/d.Omega)[1]
	if math.Abs(a-d.Gamma) > 1e-12 || math.Abs(b+d.Gamma) > 1e-12 {
		t.Errorf("forcing not applied: %g %g", a, b)
	}
}

func TestProblemDefaultsInitialState(t *testing.T) {
	sys := NewHarmonic()
	p := Problem(sys, nil, 1.5)
	if p.TInitial != 1.5 || len(p.YInitial) != 2 || p.YInitial[0] != 1 {
		t.Errorf("unexpected problem %+v", p)
	}
}

func TestExactSolutions(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, name := range []string{"exponential", "decay", "logistic", "harmonic"} {
		t.Run(name, func(t *testing.T) {
			sys, _ := New(name)
			exact, ok := sys.(Exact)
			if !ok {
				t.Fatalf("%s has no closed form", name)
			}
			info, _ := Lookup(name)

			y0 := sys.DefaultState()
			samples, err := session.Solve[[]float64](ode.Vector{}, Problem(sys, y0, 0), session.Options[[]float64]{
				Method: "rk4", StepSize: info.StepSize, TFinal: info.TFinal, Logger: discard,
			})
			if err != nil {
				t.Fatal(err)
			}

			for _, s := range samples {
				want := exact.Solution(y0, 0, s.T)
				for i := range want {
					if math.Abs(s.Y[i]-want[i]) > 1e-4*math.Max(1, math.Abs(want[i])) {
						t.Fatalf("t=%g component %d: got %g want %g", s.T, i, s.Y[i], want[i])
					}
				}
			}
		})
	}
}

func TestHarmonicEnergyDrift(t *testing.T) {
	h := NewHarmonic()
	samples, err := session.Solve[[]float64](ode.Vector{}, Problem(h, nil, 0), session.Options[[]float64]{
		Method: "dp45", StepSize: 0.1, ErrorThreshold: 1e-10, TFinal: 20,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	e0 := h.Energy(samples[0].Y)
	e1 := h.Energy(samples[len(samples)-1].Y)
	if math.Abs(e1-e0)/e0 > 1e-6 {
		t.Errorf("energy drift %g", math.Abs(e1-e0)/e0)
	}
}
