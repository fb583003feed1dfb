package tableau

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/san-kum/rkode/internal/ode"
)

// presets is the built-in method catalog. Entries are never modified; New
// copies coefficients out of them.
var presets = map[string]Definition{
	// Fixed-step methods.
	"euler": fixed(1,
		nil,
		nil,
		[]float64{1},
	),
	"midpoint": fixed(2,
		[]float64{0.5},
		[][]float64{{0.5}},
		[]float64{0, 1},
	),
	"heun": fixed(2,
		[]float64{1},
		[][]float64{{1}},
		[]float64{0.5, 0.5},
	),
	"ralston": fixed(2,
		[]float64{2.0 / 3.0},
		[][]float64{{2.0 / 3.0}},
		[]float64{0.25, 0.75},
	),
	"rk3": fixed(3,
		[]float64{0.5, 1},
		[][]float64{{0.5}, {-1, 2}},
		[]float64{1.0 / 6.0, 2.0 / 3.0, 1.0 / 6.0},
	),
	"heun3": fixed(3,
		[]float64{1.0 / 3.0, 2.0 / 3.0},
		[][]float64{{1.0 / 3.0}, {0, 2.0 / 3.0}},
		[]float64{0.25, 0, 0.75},
	),
	"ralston3": fixed(3,
		[]float64{0.5, 0.75},
		[][]float64{{0.5}, {0, 0.75}},
		[]float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
	),
	"ssprk3": fixed(3,
		[]float64{1, 0.5},
		[][]float64{{1}, {0.25, 0.25}},
		[]float64{1.0 / 6.0, 1.0 / 6.0, 2.0 / 3.0},
	),
	"rk4": fixed(4,
		[]float64{0.5, 0.5, 1},
		[][]float64{{0.5}, {0, 0.5}, {0, 0, 1}},
		[]float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
	),
	// Ralston's minimum-error fourth order method, coefficients to 8 places.
	"ralston4": fixed(4,
		[]float64{0.4, 0.45573725, 1},
		[][]float64{
			{0.4},
			{0.29697761, 0.15875964},
			{0.21810040, -3.05096516, 3.83286476},
		},
		[]float64{0.17476028, -0.55148066, 1.20553560, 0.17118478},
	),

	// Embedded pairs. High is the propagated solution under local extrapolation.
	"euler-heun": embedded(2,
		[]float64{1},
		[][]float64{{1}},
		[]float64{0.5, 0.5},
		[]float64{1, 0},
	),
	"euler-midpoint": embedded(2,
		[]float64{0.5},
		[][]float64{{0.5}},
		[]float64{0, 1},
		[]float64{1, 0},
	),
	"rkf12": embedded(2,
		[]float64{0.5, 1},
		[][]float64{{0.5}, {1.0 / 256.0, 255.0 / 256.0}},
		[]float64{1.0 / 512.0, 255.0 / 256.0, 1.0 / 512.0},
		[]float64{1.0 / 256.0, 255.0 / 256.0, 0},
	),
	"bs23": embedded(3,
		[]float64{0.5, 0.75, 1},
		[][]float64{
			{0.5},
			{0, 0.75},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		[]float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		[]float64{7.0 / 24.0, 0.25, 1.0 / 3.0, 0.125},
	),
	"rkf45": embedded(5,
		[]float64{0.25, 3.0 / 8.0, 12.0 / 13.0, 1, 0.5},
		[][]float64{
			{0.25},
			{3.0 / 32.0, 9.0 / 32.0},
			{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
			{439.0 / 216.0, -8, 3680.0 / 513.0, -845.0 / 4104.0},
			{-8.0 / 27.0, 2, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0},
		},
		[]float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -9.0 / 50.0, 2.0 / 55.0},
		[]float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -0.2, 0},
	),
	"ck45": embedded(5,
		[]float64{0.2, 0.3, 0.6, 1, 7.0 / 8.0},
		[][]float64{
			{0.2},
			{3.0 / 40.0, 9.0 / 40.0},
			{0.3, -0.9, 1.2},
			{-11.0 / 54.0, 2.5, -70.0 / 27.0, 35.0 / 27.0},
			{1631.0 / 55296.0, 175.0 / 512.0, 575.0 / 13824.0, 44275.0 / 110592.0, 253.0 / 4096.0},
		},
		[]float64{37.0 / 378.0, 0, 250.0 / 621.0, 125.0 / 594.0, 0, 512.0 / 1771.0},
		[]float64{2825.0 / 27648.0, 0, 18575.0 / 48384.0, 13525.0 / 55296.0, 277.0 / 14336.0, 0.25},
	),
	"dp45": embedded(5,
		[]float64{0.2, 0.3, 0.8, 8.0 / 9.0, 1, 1},
		[][]float64{
			{0.2},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		[]float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		[]float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0},
	),
}

func fixed(order int, nodes []float64, a [][]float64, b []float64) Definition {
	return Definition{Order: order, NumStages: len(b), Nodes: nodes, RKMatrix: a, Weights: b}
}

func embedded(order int, nodes []float64, a [][]float64, high, low []float64) Definition {
	return Definition{
		Order:     order,
		NumStages: len(high),
		Nodes:     nodes,
		RKMatrix:  a,
		Embedded:  &Embedded{High: high, Low: low},
	}
}

// Lookup builds the named preset. Unknown names wrap ode.ErrUnknownPreset.
func Lookup(name string) (*Tableau, error) {
	def, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ode.ErrUnknownPreset, name, Names())
	}
	def.Name = name
	return New(def, slog.Default())
}

// Names lists the preset catalog in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(presets))
}

// IsPreset reports whether name is in the catalog.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// Must is Lookup for names known to be in the catalog. It panics otherwise.
func Must(name string) *Tableau {
	t, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}
