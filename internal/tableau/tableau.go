// Package tableau holds Butcher tableaus for explicit Runge-Kutta methods.
//
// Stage 0 always has node 0 and an empty coupling row, so both are omitted
// from a Definition: Nodes and RKMatrix describe stages 1..s-1 only.
package tableau

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rkode/internal/ode"
)

const (
	// RowSumTolerance bounds |sum(RKMatrix[i]) - Nodes[i]|.
	RowSumTolerance = 1e-9
	// WeightSumTolerance bounds |sum(weights) - 1| before a warning is logged.
	WeightSumTolerance = 1e-6
)

// Embedded is the weight pair of an error-controlled method. High is the
// weight set of order Definition.Order.
type Embedded struct {
	High []float64
	Low  []float64
}

// Definition is the raw coefficient record a Tableau is built from. Exactly
// one of Weights and Embedded must be set.
type Definition struct {
	Name      string
	Order     int
	NumStages int
	Nodes     []float64
	RKMatrix  [][]float64
	Weights   []float64
	Embedded  *Embedded
}

// Tableau is a validated, read-only Butcher tableau.
type Tableau struct {
	name     string
	order    int
	stages   int
	nodes    []float64
	matrix   [][]float64
	high     []float64
	low      []float64
	adaptive bool
}

// New validates def and builds a Tableau from a private copy of its
// coefficients. Weight sums away from 1 are logged on logger (or the default
// logger when nil) and do not fail construction.
func New(def Definition, logger *slog.Logger) (*Tableau, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tableau{
		name:   def.Name,
		order:  def.Order,
		stages: def.NumStages,
		nodes:  append([]float64{0}, def.Nodes...),
		matrix: make([][]float64, def.NumStages),
	}
	t.matrix[0] = []float64{}
	for i, row := range def.RKMatrix {
		t.matrix[i+1] = append([]float64(nil), row...)
	}

	if def.Embedded != nil {
		t.adaptive = true
		t.high = append([]float64(nil), def.Embedded.High...)
		t.low = append([]float64(nil), def.Embedded.Low...)
	} else {
		t.high = append([]float64(nil), def.Weights...)
	}

	for _, w := range t.weightSumWarnings() {
		logger.Warn("tableau weights do not sum to 1",
			"method", t.name, "set", w.Set, "sum", w.Sum, "warning", w)
	}
	return t, nil
}

// Validate checks the shape and sum constraints of def without building it.
func Validate(def Definition) error {
	s := def.NumStages
	if s < 1 {
		return &ode.TableauError{Field: "numStages", Index: -1, Reason: fmt.Sprintf("must be at least 1, got %d", s)}
	}
	if def.Order < 1 {
		return &ode.TableauError{Field: "order", Index: -1, Reason: fmt.Sprintf("must be at least 1, got %d", def.Order)}
	}

	if len(def.Nodes) != s-1 {
		return &ode.TableauError{Field: "nodes", Index: -1, Reason: fmt.Sprintf("length %d, want numStages-1 = %d", len(def.Nodes), s-1)}
	}
	for i, c := range def.Nodes {
		if !(c >= 0 && c <= 1) {
			return &ode.TableauError{Field: "nodes", Index: i, Reason: fmt.Sprintf("%g outside [0,1]", c)}
		}
	}

	if len(def.RKMatrix) != s-1 {
		return &ode.TableauError{Field: "rkMatrix", Index: -1, Reason: fmt.Sprintf("%d rows, want numStages-1 = %d", len(def.RKMatrix), s-1)}
	}
	for i, row := range def.RKMatrix {
		if len(row) != i+1 {
			return &ode.TableauError{Field: "rkMatrix", Index: i, Reason: fmt.Sprintf("row length %d, want %d", len(row), i+1)}
		}
		if !allFinite(row) {
			return &ode.TableauError{Field: "rkMatrix", Index: i, Reason: "contains a non-finite coefficient"}
		}
		if sum := floats.Sum(row); math.Abs(sum-def.Nodes[i]) > RowSumTolerance {
			return &ode.TableauError{Field: "rkMatrix", Index: i, Reason: fmt.Sprintf("row sums to %g, want node %g", sum, def.Nodes[i])}
		}
	}

	switch {
	case def.Embedded != nil && def.Weights != nil:
		return &ode.TableauError{Field: "weights", Index: -1, Reason: "both single and embedded weights given"}
	case def.Embedded != nil:
		if err := validateWeights("weights.high", def.Embedded.High, s); err != nil {
			return err
		}
		return validateWeights("weights.low", def.Embedded.Low, s)
	default:
		return validateWeights("weights", def.Weights, s)
	}
}

func validateWeights(field string, w []float64, s int) error {
	if len(w) != s {
		return &ode.TableauError{Field: field, Index: -1, Reason: fmt.Sprintf("length %d, want numStages = %d", len(w), s)}
	}
	if !allFinite(w) {
		return &ode.TableauError{Field: field, Index: -1, Reason: "contains a non-finite weight"}
	}
	return nil
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (t *Tableau) weightSumWarnings() []ode.WeightSumWarning {
	var out []ode.WeightSumWarning
	check := func(set string, w []float64) {
		if sum := floats.Sum(w); math.Abs(sum-1) > WeightSumTolerance {
			out = append(out, ode.WeightSumWarning{Set: set, Sum: sum})
		}
	}
	if t.adaptive {
		check("high", t.high)
		check("low", t.low)
	} else {
		check("single", t.high)
	}
	return out
}

func (t *Tableau) Name() string { return t.name }
func (t *Tableau) Order() int { return t.order }
func (t *Tableau) NumStages() int { return t.stages }
func (t *Tableau) IsAdaptive() bool { return t.adaptive }

// Node returns c_i for stage i; Node(0) is 0.
func (t *Tableau) Node(i int) float64 { return t.nodes[i] }

// A returns the coupling coefficient a_ij for j < i.
func (t *Tableau) A(i, j int) float64 { return t.matrix[i][j] }

// Weight returns b_i of the single weight set, or of the high-order set for
// embedded methods.
func (t *Tableau) Weight(i int) float64 { return t.high[i] }

// LowWeight returns b*_i of the embedded low-order set. It panics for
// fixed-step tableaus.
func (t *Tableau) LowWeight(i int) float64 {
	if !t.adaptive {
		panic("tableau: LowWeight on a fixed-step method")
	}
	return t.low[i]
}

// Definition returns a copy of the coefficients in Definition form.
func (t *Tableau) Definition() Definition {
	def := Definition{
		Name:      t.name,
		Order:     t.order,
		NumStages: t.stages,
		Nodes:     append([]float64(nil), t.nodes[1:]...),
		RKMatrix:  make([][]float64, t.stages-1),
	}
	for i := 1; i < t.stages; i++ {
		def.RKMatrix[i-1] = append([]float64(nil), t.matrix[i]...)
	}
	if t.adaptive {
		def.Embedded = &Embedded{
			High: append([]float64(nil), t.high...),
			Low:  append([]float64(nil), t.low...),
		}
	} else {
		def.Weights = append([]float64(nil), t.high...)
	}
	return def
}

func (t *Tableau) String() string {
	kind := "fixed"
	if t.adaptive {
		kind = "embedded"
	}
	return fmt.Sprintf("%s (order %d, %d stages, %s)", t.name, t.order, t.stages, kind)
}
