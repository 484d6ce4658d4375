package likelihood

import (
	"github.com/san-kum/panelml/internal/panel"
)

// Evaluator is the common surface of the two marginal log-likelihood
// approximations. The return value is the mean per-individual log
// likelihood, so values are comparable across evaluators and draw counts.
type Evaluator interface {
	LogLikelihood(p *panel.Panel, th panel.Theta) (float64, error)
}

// Simulated approximates each individual's marginal likelihood by averaging
// the conditional likelihood over realizations of the random effect.
//
// At low draw counts (well below ~100 for this model class) the estimator
// is materially biased, most visibly in the variance scales. That is a
// documented property of simulated maximum likelihood, not something the
// evaluator corrects for; raise R or switch to [Quadrature].
type Simulated struct {
	strategy Strategy
	workers  int
}

func NewSimulated(s Strategy) *Simulated {
	return &Simulated{strategy: s, workers: 1}
}

// Parallel sets the number of goroutines used for the per-individual loop.
// Results are identical to the sequential evaluation for the same draws.
func (e *Simulated) Parallel(workers int) *Simulated {
	e.workers = workers
	return e
}

func (e *Simulated) LogLikelihood(p *panel.Panel, th panel.Theta) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := th.Validate(p.K()); err != nil {
		return 0, err
	}

	// Draws come out of the strategy sequentially before any goroutine
	// starts, so parallel evaluation sees the exact draw matrix the
	// sequential path would.
	draws, err := e.strategy.Draws(p.N())
	if err != nil {
		return 0, err
	}

	contrib := make([]float64, p.N())
	forEach(p.N(), e.workers, func(i int) {
		row := draws[i]
		logs := make([]float64, len(row))
		for r, c := range row {
			logs[r] = logConditional(p.Y[i], p.X[i], th, c)
		}
		contrib[i] = logMeanExp(logs)
	})

	sum := 0.0
	for _, v := range contrib {
		sum += v
	}
	return sum / float64(p.N()), nil
}
