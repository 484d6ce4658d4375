package likelihood

import (
	"fmt"

	"github.com/san-kum/panelml/internal/gauss"
	"github.com/san-kum/panelml/internal/panel"
)

// Quadrature approximates each individual's marginal likelihood with a
// Gauss-Hermite rule on the standard-normal measure. The rule is computed
// once at construction and reused for every individual and every call, so
// the evaluator is a deterministic, smooth function of theta.
type Quadrature struct {
	nodes   []float64
	weights []float64
	workers int
}

func NewQuadrature(q int) (*Quadrature, error) {
	if q < 1 {
		return nil, fmt.Errorf("%w: %d", ErrDraws, q)
	}
	nodes, weights, err := gauss.HermiteRule(q)
	if err != nil {
		return nil, err
	}
	return &Quadrature{nodes: nodes, weights: weights, workers: 1}, nil
}

// Parallel sets the number of goroutines used for the per-individual loop.
func (e *Quadrature) Parallel(workers int) *Quadrature {
	e.workers = workers
	return e
}

func (e *Quadrature) LogLikelihood(p *panel.Panel, th panel.Theta) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := th.Validate(p.K()); err != nil {
		return 0, err
	}

	contrib := make([]float64, p.N())
	forEach(p.N(), e.workers, func(i int) {
		logs := make([]float64, len(e.nodes))
		for q, c := range e.nodes {
			logs[q] = logConditional(p.Y[i], p.X[i], th, c)
		}
		contrib[i] = logSumExpWeighted(logs, e.weights)
	})

	sum := 0.0
	for _, v := range contrib {
		sum += v
	}
	return sum / float64(p.N()), nil
}
