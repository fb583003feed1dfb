package problems

import "math"

// Exponential is y' = k y. Negative k gives exponential decay.
type Exponential struct {
	K float64
}

func NewExponential(k float64) *Exponential { return &Exponential{K: k} }

func (e *Exponential) Dim() int { return 1 }

func (e *Exponential) Eval(y []float64, _ float64) []float64 {
	return []float64{e.K * y[0]}
}

func (e *Exponential) DefaultState() []float64 { return []float64{1} }

func (e *Exponential) Solution(y0 []float64, t0, t float64) []float64 {
	return []float64{y0[0] * math.Exp(e.K*(t-t0))}
}

func (e *Exponential) GetParams() map[string]float64 {
	return map[string]float64{"k": e.K}
}

func (e *Exponential) SetParam(name string, v float64) error {
	if name != "k" {
		return unknownParam("exponential", name)
	}
	e.K = v
	return nil
}

// Logistic is y' = r y (1 - y/K).
type Logistic struct {
	Rate, Capacity float64
}

func NewLogistic() *Logistic {
	return &Logistic{Rate: 1, Capacity: 10}
}

func (l *Logistic) Dim() int { return 1 }

func (l *Logistic) Eval(y []float64, _ float64) []float64 {
	return []float64{l.Rate * y[0] * (1 - y[0]/l.Capacity)}
}

func (l *Logistic) DefaultState() []float64 { return []float64{0.5} }

func (l *Logistic) Solution(y0 []float64, t0, t float64) []float64 {
	k := l.Capacity
	ratio := k/y0[0] - 1
	decay := math.Exp(-l.Rate * (t - t0))
	return []float64{k / (1 + ratio*decay)}
}

func (l *Logistic) GetParams() map[string]float64 {
	return map[string]float64{"r": l.Rate, "K": l.Capacity}
}

func (l *Logistic) SetParam(name string, v float64) error {
	switch name {
	case "r":
		l.Rate = v
	case "K":
		l.Capacity = v
	default:
		return unknownParam("logistic", name)
	}
	return nil
}
