// Package optim searches run parameters for the cheapest acceptable
// configuration.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
)

// ErrNoFeasible means every grid point failed or scored +Inf.
var ErrNoFeasible = errors.New("rkode: no feasible grid point")

// Objective scores one parameter assignment; lower is better. Returning
// +Inf marks the point infeasible. A non-nil error skips the point unless
// it is a context error.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("rkode: %d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("rkode: parameter %q has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points is the number of assignments the search visits.
func (g *GridSearch) Points() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search visits every point of the grid in order and returns the best
// assignment with its score. Ties keep the first point visited.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64, len(g.paramNames)), objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoFeasible
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}

		val, err := objective(ctx, current)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
