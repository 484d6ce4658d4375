package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/panelml/internal/panel"
)

// StartingPoint builds a cheap theta0 for Fit: pooled OLS for beta, then a
// within/between split of the residual spread for the two scales. It is a
// starting value, not an estimator; the variance split ignores the
// random-effect correlation that Fit accounts for.
func StartingPoint(p *panel.Panel) (panel.Theta, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, t, k := p.N(), p.T(), p.K()

	design := mat.NewDense(n*t, k, nil)
	resp := mat.NewDense(n*t, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < t; j++ {
			row := i*t + j
			design.SetRow(row, p.X[i][j])
			resp.Set(row, 0, p.Y[i][j])
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, resp); err != nil {
		return nil, fmt.Errorf("estimate: pooled ols: %w", err)
	}

	beta := make([]float64, k)
	for d := 0; d < k; d++ {
		beta[d] = sol.At(d, 0)
	}

	// Within-individual residual spread seeds sigma_u, the spread of the
	// per-individual residual means seeds sigma_c.
	within := make([]float64, 0, n*t)
	means := make([]float64, n)
	for i := 0; i < n; i++ {
		mi := 0.0
		resid := make([]float64, t)
		for j := 0; j < t; j++ {
			r := p.Y[i][j]
			for d := 0; d < k; d++ {
				r -= p.X[i][j][d] * beta[d]
			}
			resid[j] = r
			mi += r
		}
		mi /= float64(t)
		means[i] = mi
		for j := 0; j < t; j++ {
			within = append(within, resid[j]-mi)
		}
	}

	su := stat.StdDev(within, nil)
	sc := stat.StdDev(means, nil)
	if su < 1e-3 || math.IsNaN(su) {
		su = 1e-3
	}
	if sc < 0 || math.IsNaN(sc) {
		sc = 0
	}

	th := make(panel.Theta, 0, k+2)
	th = append(th, beta...)
	th = append(th, su, sc)
	return th, nil
}
