package estimate

import (
	"math"

	"github.com/san-kum/panelml/internal/likelihood"
	"github.com/san-kum/panelml/internal/panel"
)

// Criterion adapts an evaluator into the scalar function the minimizer
// consumes: the negated mean log likelihood over theta, closing over the
// panel and the evaluator's draw policy. Points outside the valid variance
// region (sigma_u <= 0 or sigma_c < 0) evaluate to +Inf so an unconstrained
// search backs away instead of aborting the estimation.
func Criterion(ev likelihood.Evaluator, p *panel.Panel) func(theta []float64) float64 {
	return func(theta []float64) float64 {
		th := panel.Theta(theta)
		if err := th.Validate(p.K()); err != nil {
			return math.Inf(1)
		}
		ll, err := ev.LogLikelihood(p, th)
		if err != nil {
			return math.Inf(1)
		}
		return -ll
	}
}
