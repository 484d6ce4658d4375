package gauss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// LogPhi returns the log of the standard normal density at z.
func LogPhi(z float64) float64 {
	return stdNormal.LogProb(z)
}

// EquiprobableGrid returns the r standard-normal quantiles at probabilities
// (i+0.5)/r. The grid is a deterministic stand-in for random draws: it is
// reused unchanged across individuals and across calls.
func EquiprobableGrid(r int) ([]float64, error) {
	if r < 1 {
		return nil, fmt.Errorf("gauss: grid size must be positive, got %d", r)
	}
	nodes := make([]float64, r)
	for i := range nodes {
		nodes[i] = stdNormal.Quantile((float64(i) + 0.5) / float64(r))
	}
	return nodes, nil
}

// HermiteRule returns q Gauss-Hermite nodes and weights rescaled to the
// standard-normal measure: the weights sum to 1 and the nodes are on the
// same scale as standard-normal draws, so the rule is interchangeable with
// the simulation grid.
//
// Nodes are the eigenvalues of the Jacobi matrix of the Hermite recurrence
// (Golub-Welsch); weights come from the first components of the
// eigenvectors.
func HermiteRule(q int) (nodes, weights []float64, err error) {
	if q < 1 {
		return nil, nil, fmt.Errorf("gauss: rule size must be positive, got %d", q)
	}
	jacobi := mat.NewSymDense(q, nil)
	for i := 0; i < q-1; i++ {
		jacobi.SetSym(i, i+1, math.Sqrt(float64(i+1)/2))
	}

	var eig mat.EigenSym
	if !eig.Factorize(jacobi, true) {
		return nil, nil, fmt.Errorf("gauss: eigendecomposition failed for q=%d", q)
	}
	var vec mat.Dense
	eig.VectorsTo(&vec)
	vals := eig.Values(nil)

	nodes = make([]float64, q)
	weights = make([]float64, q)
	for i := 0; i < q; i++ {
		// sqrt(2) maps nodes for exp(-x^2) onto the standard-normal scale;
		// the sqrt(pi) normalizer cancels so squared first components
		// already sum to 1.
		nodes[i] = vals[i] * math.Sqrt2
		v0 := vec.At(0, i)
		weights[i] = v0 * v0
	}
	return nodes, weights, nil
}
