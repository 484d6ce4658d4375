package estimate

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/panelml/internal/likelihood"
	"github.com/san-kum/panelml/internal/panel"
	"github.com/san-kum/panelml/internal/simulate"
)

var benchTheta = panel.Theta{1, 1, 1, 1}

func generatePanel(t *testing.T, n, T int, seed uint64) *panel.Panel {
	t.Helper()
	p, _, err := simulate.Generate(benchTheta, n, T, seed)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return p
}

func TestCriterionNegatesLogLikelihood(t *testing.T) {
	p := generatePanel(t, 20, 5, 2)

	evs := map[string]likelihood.Evaluator{
		"simulated":  likelihood.NewSimulated(likelihood.FixedGrid{R: 10}),
		"quadrature": mustQuad(t, 10),
	}
	for name, ev := range evs {
		t.Run(name, func(t *testing.T) {
			ll, err := ev.LogLikelihood(p, benchTheta)
			if err != nil {
				t.Fatalf("evaluation failed: %v", err)
			}
			if got := Criterion(ev, p)(benchTheta); got != -ll {
				t.Errorf("expected %v, got %v", -ll, got)
			}
		})
	}
}

func TestCriterionInfiniteOutsideValidRegion(t *testing.T) {
	p := generatePanel(t, 10, 3, 2)
	obj := Criterion(mustQuad(t, 5), p)

	tests := []struct {
		name  string
		theta []float64
	}{
		{"zero sigma_u", []float64{1, 1, 0, 1}},
		{"negative sigma_u", []float64{1, 1, -0.5, 1}},
		{"negative sigma_c", []float64{1, 1, 1, -0.5}},
		{"wrong length", []float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := obj(tt.theta); !math.IsInf(got, 1) {
				t.Errorf("expected +Inf, got %v", got)
			}
		})
	}
}

func TestFitQuadratureRecoversTruth(t *testing.T) {
	// N=100, T=10, beta=(1,1), sigma_u=sigma_c=1, seed=1, Q=20,
	// starting from the true theta.
	p := generatePanel(t, 100, 10, 1)

	res, err := Fit(mustQuad(t, 20), p, benchTheta.Clone(), DefaultOptions())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !res.Converged {
		t.Fatalf("optimizer did not converge after %d iterations", res.Iterations)
	}
	if res.InferenceErr != nil {
		t.Fatalf("inference failed: %v", res.InferenceErr)
	}

	for i, want := range benchTheta {
		if math.Abs(res.Theta[i]-want) > 0.15 {
			t.Errorf("theta[%d]: expected %.2f within 0.15, got %.4f", i, want, res.Theta[i])
		}
	}
	for i, se := range res.SE {
		if se <= 0 || math.IsNaN(se) {
			t.Errorf("se[%d]: expected positive finite value, got %v", i, se)
		}
	}
	// The coefficients are strongly identified here, so their t-stats
	// should be far from zero.
	for i := 0; i < 2; i++ {
		if math.Abs(res.TStat[i]) < 5 {
			t.Errorf("t[%d]: expected |t| > 5, got %.2f", i, res.TStat[i])
		}
	}
	if res.FuncEvals <= 0 || res.Iterations <= 0 {
		t.Errorf("expected positive diagnostics, got %d iterations %d evals", res.Iterations, res.FuncEvals)
	}
}

func TestFitLowDrawBias(t *testing.T) {
	if testing.Short() {
		t.Skip("scenario test")
	}

	// With very few draws the integral approximation is poor and the scale
	// estimates are materially biased; R=100 should sit close to truth.
	// Averaged across datasets so sampling noise does not mask the effect.
	const datasets = 6
	errLow, errHigh := 0.0, 0.0
	for seed := uint64(1); seed <= datasets; seed++ {
		p := generatePanel(t, 100, 10, seed)

		low, err := Fit(likelihood.NewSimulated(likelihood.FixedGrid{R: 5}), p, benchTheta.Clone(), DefaultOptions())
		if err != nil {
			t.Fatalf("seed %d low-R fit failed: %v", seed, err)
		}
		high, err := Fit(likelihood.NewSimulated(likelihood.FixedGrid{R: 100}), p, benchTheta.Clone(), DefaultOptions())
		if err != nil {
			t.Fatalf("seed %d high-R fit failed: %v", seed, err)
		}
		if !low.Converged || !high.Converged {
			t.Fatalf("seed %d: expected both fits to converge", seed)
		}

		errLow += math.Hypot(low.Theta.SigmaU()-1, low.Theta.SigmaC()-1)
		errHigh += math.Hypot(high.Theta.SigmaU()-1, high.Theta.SigmaC()-1)
	}
	errLow /= datasets
	errHigh /= datasets

	if errLow <= errHigh {
		t.Errorf("expected low-R scale estimates to be worse: R=5 error %.4f, R=100 error %.4f", errLow, errHigh)
	}
	if errHigh > 0.12 {
		t.Errorf("expected R=100 scale estimates within 0.12 on average, got %.4f", errHigh)
	}
}

func TestFitReportsNonConvergence(t *testing.T) {
	p := generatePanel(t, 30, 5, 4)

	res, err := Fit(mustQuad(t, 10), p, panel.Theta{0, 0, 2, 0.5}, Options{
		MaxIterations: 3,
		MaxFuncEvals:  8,
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if res.Converged {
		t.Error("expected non-convergence with a tiny budget")
	}
	if len(res.Theta) != 4 {
		t.Errorf("expected best point of length 4, got %d", len(res.Theta))
	}
	if res.FuncEvals == 0 {
		t.Error("expected function evaluation count to be reported")
	}
	if res.SE != nil {
		t.Error("expected no standard errors without convergence")
	}
}

func TestFitInvalidInputs(t *testing.T) {
	p := generatePanel(t, 10, 3, 4)
	quad := mustQuad(t, 5)

	if _, err := Fit(quad, p, panel.Theta{1, 1, 1}, DefaultOptions()); !errors.Is(err, panel.ErrThetaLength) {
		t.Errorf("expected theta length error, got %v", err)
	}
	if _, err := Fit(quad, p, benchTheta.Clone(), Options{MaxIterations: 0, MaxFuncEvals: 100}); err == nil {
		t.Error("expected error for empty iteration budget")
	}
}

func TestInferenceRejectsIndefiniteHessian(t *testing.T) {
	// A concave objective has a negative definite Hessian at any point, so
	// the covariance step must fail rather than produce NaN variances.
	obj := func(x []float64) float64 { return -(x[0]*x[0] + x[1]*x[1]) }

	_, _, _, err := inference(obj, panel.Theta{1, 1}, 10)
	if !errors.Is(err, ErrHessianNotPD) {
		t.Fatalf("expected ErrHessianNotPD, got %v", err)
	}
}

func TestInferenceOnQuadraticBowl(t *testing.T) {
	// Mean criterion x'x/2 over n individuals: total curvature n*I, so the
	// covariance is I/n and every standard error is 1/sqrt(n).
	obj := func(x []float64) float64 { return 0.5 * (x[0]*x[0] + x[1]*x[1]) }

	cov, se, tstat, err := inference(obj, panel.Theta{0.5, -0.25}, 25)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	want := 1.0 / 5.0
	for i := 0; i < 2; i++ {
		if math.Abs(se[i]-want) > 1e-4 {
			t.Errorf("se[%d]: expected %.4f, got %.4f", i, want, se[i])
		}
	}
	if math.Abs(cov.At(0, 1)) > 1e-4 {
		t.Errorf("expected near-zero covariance, got %f", cov.At(0, 1))
	}
	if math.Abs(tstat[0]-0.5/want) > 1e-2 {
		t.Errorf("expected t ~ %.2f, got %.2f", 0.5/want, tstat[0])
	}
}

func TestGridSearch(t *testing.T) {
	p := generatePanel(t, 60, 8, 9)
	ev := mustQuad(t, 10)

	gs := NewGridSearch([][]float64{
		{1}, {1},
		{0.5, 1, 2},
		{0.5, 1, 2},
	})
	th, val, err := gs.Search(ev, p)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		t.Fatalf("expected finite best value, got %v", val)
	}
	if th.SigmaU() != 1 || th.SigmaC() != 1 {
		t.Errorf("expected grid to pick the true scales, got su=%.1f sc=%.1f", th.SigmaU(), th.SigmaC())
	}
}

func TestGridSearchDimensionMismatch(t *testing.T) {
	p := generatePanel(t, 10, 3, 9)
	gs := NewGridSearch([][]float64{{1}, {1}, {1}})
	if _, _, err := gs.Search(mustQuad(t, 5), p); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestStartingPoint(t *testing.T) {
	p := generatePanel(t, 100, 10, 5)

	th, err := StartingPoint(p)
	if err != nil {
		t.Fatalf("starting point failed: %v", err)
	}
	if len(th) != 4 {
		t.Fatalf("expected theta of length 4, got %d", len(th))
	}
	for i := 0; i < 2; i++ {
		if math.Abs(th[i]-1) > 0.2 {
			t.Errorf("beta[%d]: expected near 1, got %.4f", i, th[i])
		}
	}
	if th.SigmaU() < 0.5 || th.SigmaU() > 1.5 {
		t.Errorf("sigma_u start out of range: %.4f", th.SigmaU())
	}
	if th.SigmaC() < 0.5 || th.SigmaC() > 1.5 {
		t.Errorf("sigma_c start out of range: %.4f", th.SigmaC())
	}
	if err := th.Validate(p.K()); err != nil {
		t.Errorf("starting point fails validation: %v", err)
	}
}

func mustQuad(t *testing.T, q int) *likelihood.Quadrature {
	t.Helper()
	ev, err := likelihood.NewQuadrature(q)
	if err != nil {
		t.Fatalf("quadrature setup failed: %v", err)
	}
	return ev
}
