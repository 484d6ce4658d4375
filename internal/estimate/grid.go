package estimate

import (
	"fmt"
	"math"

	"github.com/san-kum/panelml/internal/likelihood"
	"github.com/san-kum/panelml/internal/panel"
)

// GridSearch scans candidate parameter vectors over a coarse grid, one
// candidate list per theta element, and keeps the vector with the lowest
// criterion value. Useful for picking a starting point for Fit when no
// reasonable theta0 is known.
type GridSearch struct {
	ranges [][]float64
}

func NewGridSearch(ranges [][]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

func (g *GridSearch) Search(ev likelihood.Evaluator, p *panel.Panel) (panel.Theta, float64, error) {
	if len(g.ranges) != p.K()+2 {
		return nil, 0, fmt.Errorf("estimate: grid has %d dimensions, theta needs %d", len(g.ranges), p.K()+2)
	}
	obj := Criterion(ev, p)

	best := math.Inf(1)
	var bestTheta panel.Theta
	g.searchRecursive(0, make(panel.Theta, 0, len(g.ranges)), obj, &best, &bestTheta)

	if bestTheta == nil {
		return nil, 0, fmt.Errorf("estimate: no grid point produced a finite criterion value")
	}
	return bestTheta, best, nil
}

func (g *GridSearch) searchRecursive(depth int, current panel.Theta, obj func([]float64) float64, best *float64, bestTheta *panel.Theta) {
	if depth == len(g.ranges) {
		val := obj(current)
		if val < *best {
			*best = val
			*bestTheta = current.Clone()
		}
		return
	}
	for _, v := range g.ranges[depth] {
		g.searchRecursive(depth+1, append(current, v), obj, best, bestTheta)
	}
}
