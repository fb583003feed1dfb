package problems

// LotkaVolterra is the predator-prey model.
// State: [prey, predator].
type LotkaVolterra struct {
	Alpha, Beta, Delta, Gamma float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{Alpha: 1.5, Beta: 1, Delta: 1, Gamma: 3}
}

func (l *LotkaVolterra) Dim() int { return 2 }

func (l *LotkaVolterra) Eval(y []float64, _ float64) []float64 {
	x, p := y[0], y[1]
	return []float64{l.Alpha*x - l.Beta*x*p, l.Delta*x*p - l.Gamma*p}
}

func (l *LotkaVolterra) DefaultState() []float64 { return []float64{10, 5} }

func (l *LotkaVolterra) GetParams() map[string]float64 {
	return map[string]float64{"alpha": l.Alpha, "beta": l.Beta, "delta": l.Delta, "gamma": l.Gamma}
}

func (l *LotkaVolterra) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		l.Alpha = v
	case "beta":
		l.Beta = v
	case "delta":
		l.Delta = v
	case "gamma":
		l.Gamma = v
	default:
		return unknownParam("lotka-volterra", n)
	}
	return nil
}

type Lorenz struct{ sigma, rho, beta float64 }

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

func (l *Lorenz) Dim() int { return 3 }

func (l *Lorenz) Eval(s []float64, _ float64) []float64 {
	return []float64{l.sigma * (s[1] - s[0]), s[0]*(l.rho-s[2]) - s[1], s[0]*s[1] - l.beta*s[2]}
}

func (l *Lorenz) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return unknownParam("lorenz", n)
	}
	return nil
}

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler { return &Rossler{0.2, 0.2, 5.7} }

func (r *Rossler) Dim() int { return 3 }

func (r *Rossler) Eval(s []float64, _ float64) []float64 {
	return []float64{-s[1] - s[2], s[0] + r.a*s[1], r.b + s[2]*(s[0]-r.c)}
}

func (r *Rossler) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }

func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}

func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam("rossler", n)
	}
	return nil
}
