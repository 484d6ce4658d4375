// Package estimate turns a likelihood evaluator into parameter estimates:
// it drives the external minimizer over the criterion and derives standard
// errors and t-statistics from the curvature at the optimum.
package estimate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/panelml/internal/likelihood"
	"github.com/san-kum/panelml/internal/panel"
)

// ErrHessianNotPD indicates the numerical Hessian at the optimum is not
// positive definite, so no covariance can be reported. Distinct from
// optimizer non-convergence, which is reported via [Result].Converged.
var ErrHessianNotPD = errors.New("estimate: hessian not positive definite at optimum")

// Options bound the minimizer and the function-evaluation budget.
type Options struct {
	MaxIterations int
	MaxFuncEvals  int
}

func DefaultOptions() Options {
	return Options{MaxIterations: 1000, MaxFuncEvals: 5000}
}

// Result holds one estimation outcome. Immutable after return.
type Result struct {
	Theta     panel.Theta
	Cov       *mat.SymDense
	SE        []float64
	TStat     []float64
	Criterion float64

	Converged  bool
	Iterations int
	FuncEvals  int

	// InferenceErr is set when the post-convergence covariance step fails
	// (e.g. ErrHessianNotPD); Theta and the diagnostics above stay valid.
	InferenceErr error
}

// Fit minimizes the criterion induced by ev over theta starting from
// theta0, then estimates the asymptotic covariance from a finite-difference
// Hessian. Non-convergence is not an error: the best point found comes back
// with Converged=false and the iteration counts, never as silent success.
func Fit(ev likelihood.Evaluator, p *panel.Panel, theta0 panel.Theta, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := theta0.Validate(p.K()); err != nil {
		return nil, err
	}
	if opts.MaxIterations <= 0 || opts.MaxFuncEvals <= 0 {
		return nil, fmt.Errorf("estimate: iteration and evaluation budgets must be positive")
	}

	obj := Criterion(ev, p)
	problem := optimize.Problem{Func: obj}
	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		FuncEvaluations: opts.MaxFuncEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, theta0.Clone(), settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("estimate: minimize: %w", err)
	}

	out := &Result{
		Theta:      panel.Theta(res.X).Clone(),
		Criterion:  res.F,
		Converged:  err == nil && successStatus(res.Status),
		Iterations: res.Stats.MajorIterations,
		FuncEvals:  res.Stats.FuncEvaluations,
	}

	if out.Converged {
		cov, se, tstat, infErr := inference(obj, out.Theta, p.N())
		if infErr != nil {
			out.InferenceErr = infErr
		} else {
			out.Cov, out.SE, out.TStat = cov, se, tstat
		}
	}
	return out, nil
}

func successStatus(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.FunctionThreshold, optimize.GradientThreshold:
		return true
	}
	return false
}

// inference derives the covariance of theta-hat from the curvature of the
// mean criterion. The criterion averages over n individuals, so the total
// log-likelihood Hessian is n times the numerical one; the covariance is
// its inverse.
func inference(obj func([]float64) float64, theta panel.Theta, n int) (*mat.SymDense, []float64, []float64, error) {
	dim := len(theta)
	hess := mat.NewSymDense(dim, nil)
	fd.Hessian(hess, obj, theta, nil)

	var chol mat.Cholesky
	if !chol.Factorize(hess) {
		return nil, nil, nil, ErrHessianNotPD
	}
	cov := mat.NewSymDense(dim, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, nil, nil, fmt.Errorf("estimate: invert hessian: %w", err)
	}
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, cov.At(i, j)/float64(n))
		}
	}

	se := make([]float64, dim)
	tstat := make([]float64, dim)
	for i := 0; i < dim; i++ {
		se[i] = math.Sqrt(cov.At(i, i))
		tstat[i] = theta[i] / se[i]
	}
	return cov, se, tstat, nil
}
