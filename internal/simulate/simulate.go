// Package simulate draws synthetic panels from the random-effects model for
// the CLI and for scenario tests. The latent effects it returns are
// diagnostic output only; evaluators never see them.
package simulate

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/panelml/internal/panel"
)

// Generate draws a balanced N x T panel from
//
//	y_it = x_it·beta + sigma_c*c_i + sigma_u*u_it
//
// with c_i and u_it independent standard normal. The first covariate is a
// constant intercept; the remaining K-1 are standard normal. The returned
// slice holds the realized individual effects sigma_c*c_i.
func Generate(th panel.Theta, n, t int, seed uint64) (*panel.Panel, []float64, error) {
	if n < 1 || t < 1 {
		return nil, nil, fmt.Errorf("simulate: need positive panel dimensions, got n=%d t=%d", n, t)
	}
	k := len(th) - 2
	if k < 1 {
		return nil, nil, panel.ErrThetaLength
	}
	if err := th.Validate(k); err != nil {
		return nil, nil, err
	}

	std := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}
	beta := th.Beta()
	su, sc := th.SigmaU(), th.SigmaC()

	y := make([][]float64, n)
	x := make([][][]float64, n)
	effects := make([]float64, n)
	for i := 0; i < n; i++ {
		ci := sc * std.Rand()
		effects[i] = ci

		y[i] = make([]float64, t)
		x[i] = make([][]float64, t)
		for j := 0; j < t; j++ {
			xit := make([]float64, k)
			xit[0] = 1
			for d := 1; d < k; d++ {
				xit[d] = std.Rand()
			}
			x[i][j] = xit

			mean := 0.0
			for d := range xit {
				mean += xit[d] * beta[d]
			}
			y[i][j] = mean + ci + su*std.Rand()
		}
	}
	return &panel.Panel{Y: y, X: x}, effects, nil
}
