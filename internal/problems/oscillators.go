package problems

import "math"

// Harmonic is the undamped oscillator.
// State: [x, v] where v = dx/dt.
type Harmonic struct {
	Omega float64
}

func NewHarmonic() *Harmonic { return &Harmonic{Omega: 1} }

func (h *Harmonic) Dim() int { return 2 }

func (h *Harmonic) Eval(y []float64, _ float64) []float64 {
	return []float64{y[1], -h.Omega * h.Omega * y[0]}
}

func (h *Harmonic) DefaultState() []float64 { return []float64{1, 0} }

func (h *Harmonic) Solution(y0 []float64, t0, t float64) []float64 {
	w := h.Omega
	s, c := math.Sincos(w * (t - t0))
	return []float64{
		y0[0]*c + y0[1]/w*s,
		-y0[0]*w*s + y0[1]*c,
	}
}

// Energy is the total mechanical energy per unit mass.
func (h *Harmonic) Energy(y []float64) float64 {
	return 0.5*y[1]*y[1] + 0.5*h.Omega*h.Omega*y[0]*y[0]
}

func (h *Harmonic) GetParams() map[string]float64 {
	return map[string]float64{"omega": h.Omega}
}

func (h *Harmonic) SetParam(name string, v float64) error {
	if name != "omega" {
		return unknownParam("harmonic", name)
	}
	h.Omega = v
	return nil
}

// Damped is a linearly damped oscillator with damping ratio Zeta.
type Damped struct {
	Omega, Zeta float64
}

func NewDamped() *Damped { return &Damped{Omega: 2, Zeta: 0.1} }

func (d *Damped) Dim() int { return 2 }

func (d *Damped) Eval(y []float64, _ float64) []float64 {
	w := d.Omega
	return []float64{y[1], -2*d.Zeta*w*y[1] - w*w*y[0]}
}

func (d *Damped) DefaultState() []float64 { return []float64{1, 0} }

func (d *Damped) GetParams() map[string]float64 {
	return map[string]float64{"omega": d.Omega, "zeta": d.Zeta}
}

func (d *Damped) SetParam(name string, v float64) error {
	switch name {
	case "omega":
		d.Omega = v
	case "zeta":
		d.Zeta = v
	default:
		return unknownParam("damped", name)
	}
	return nil
}

// VanDerPol is the Van der Pol oscillator.
// State: [x, y] where y = dx/dt.
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol { return &VanDerPol{Mu: 1} }

func (v *VanDerPol) Dim() int { return 2 }

func (v *VanDerPol) Eval(y []float64, _ float64) []float64 {
	x, dx := y[0], y[1]
	return []float64{dx, v.Mu*(1-x*x)*dx - x}
}

func (v *VanDerPol) DefaultState() []float64 { return []float64{2, 0} }

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam("vanderpol", name)
	}
	v.Mu = value
	return nil
}

// Duffing is the periodically forced nonlinear oscillator. The forcing
// makes it the one non-autonomous system in the catalog.
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 0.5, 1.2}
}

func (d *Duffing) Dim() int { return 2 }

func (d *Duffing) Eval(y []float64, t float64) []float64 {
	x, v := y[0], y[1]
	return []float64{v, -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(d.Omega*t)}
}

func (d *Duffing) DefaultState() []float64 { return []float64{1, 0} }

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		d.Alpha = v
	case "beta":
		d.Beta = v
	case "delta":
		d.Delta = v
	case "gamma":
		d.Gamma = v
	case "omega":
		d.Omega = v
	default:
		return unknownParam("duffing", n)
	}
	return nil
}
