package panel

import (
	"errors"
	"fmt"
)

// Domain errors for panel data and parameter validation.
var (
	// ErrEmpty indicates a panel with no individuals or no periods.
	ErrEmpty = errors.New("panel: empty panel")

	// ErrUnbalanced indicates individuals with differing period counts.
	ErrUnbalanced = errors.New("panel: unbalanced panel")

	// ErrCovariateDim indicates a covariate vector with the wrong length.
	ErrCovariateDim = errors.New("panel: covariate dimension mismatch")

	// ErrThetaLength indicates a parameter vector that is not length K+2.
	ErrThetaLength = errors.New("panel: parameter vector must have length K+2")

	// ErrSigmaU indicates a non-positive observation noise scale.
	ErrSigmaU = errors.New("panel: sigma_u must be positive")

	// ErrSigmaC indicates a negative random-effect scale.
	ErrSigmaC = errors.New("panel: sigma_c must be non-negative")
)

// Panel holds a balanced panel: Y[i][t] is the response of individual i in
// period t, X[i][t] the matching K-dimensional covariate vector. Evaluators
// treat both as read-only.
type Panel struct {
	Y [][]float64
	X [][][]float64
}

func (p *Panel) N() int { return len(p.Y) }

func (p *Panel) T() int {
	if len(p.Y) == 0 {
		return 0
	}
	return len(p.Y[0])
}

func (p *Panel) K() int {
	if len(p.X) == 0 || len(p.X[0]) == 0 {
		return 0
	}
	return len(p.X[0][0])
}

// Validate checks that the panel is non-empty, balanced, and that every
// covariate vector has the same dimension.
func (p *Panel) Validate() error {
	if p.N() == 0 || p.T() == 0 || p.K() == 0 {
		return ErrEmpty
	}
	if len(p.X) != p.N() {
		return fmt.Errorf("%w: %d response rows, %d covariate rows", ErrUnbalanced, p.N(), len(p.X))
	}
	t, k := p.T(), p.K()
	for i := range p.Y {
		if len(p.Y[i]) != t || len(p.X[i]) != t {
			return fmt.Errorf("%w: individual %d", ErrUnbalanced, i)
		}
		for j := range p.X[i] {
			if len(p.X[i][j]) != k {
				return fmt.Errorf("%w: individual %d period %d", ErrCovariateDim, i, j)
			}
		}
	}
	return nil
}

// Theta is the model parameter vector (beta_1..beta_K, sigma_u, sigma_c).
type Theta []float64

func (th Theta) Beta() []float64 { return th[:len(th)-2] }

func (th Theta) SigmaU() float64 { return th[len(th)-2] }

func (th Theta) SigmaC() float64 { return th[len(th)-1] }

func (th Theta) Clone() Theta {
	c := make(Theta, len(th))
	copy(c, th)
	return c
}

// Validate checks the vector length against the covariate dimension and the
// variance-scale sign constraints.
func (th Theta) Validate(k int) error {
	if len(th) != k+2 {
		return fmt.Errorf("%w: got %d, want %d", ErrThetaLength, len(th), k+2)
	}
	if th.SigmaU() <= 0 {
		return fmt.Errorf("%w: got %f", ErrSigmaU, th.SigmaU())
	}
	if th.SigmaC() < 0 {
		return fmt.Errorf("%w: got %f", ErrSigmaC, th.SigmaC())
	}
	return nil
}
