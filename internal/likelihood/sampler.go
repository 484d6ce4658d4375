package likelihood

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/panelml/internal/gauss"
)

// ErrDraws indicates a non-positive draw or node count.
var ErrDraws = errors.New("likelihood: draw count must be positive")

// Strategy produces the realizations of the standardized random effect that
// the simulated evaluator averages over, one row per individual.
type Strategy interface {
	Draws(n int) ([][]float64, error)
}

// FixedGrid supplies the same R equiprobable standard-normal quantiles to
// every individual on every call. The induced criterion is deterministic
// and smooth in theta; the price is a structured approximation rather than
// an unbiased one.
type FixedGrid struct {
	R int
}

func (g FixedGrid) Draws(n int) ([][]float64, error) {
	grid, err := gauss.EquiprobableGrid(g.R)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrDraws, g.R)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = grid
	}
	return rows, nil
}

// MonteCarlo draws fresh standard-normal realizations on every call from a
// stream the strategy owns. Repeated evaluations at the same theta differ
// by simulation noise, but the stream itself is reproducible: two
// strategies built from the same seed produce identical draw sequences.
type MonteCarlo struct {
	r    int
	dist distuv.Normal
}

func NewMonteCarlo(r int, seed uint64) *MonteCarlo {
	return &MonteCarlo{
		r:    r,
		dist: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)},
	}
}

func (m *MonteCarlo) Draws(n int) ([][]float64, error) {
	if m.r < 1 {
		return nil, fmt.Errorf("%w: %d", ErrDraws, m.r)
	}
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, m.r)
		for j := range row {
			row[j] = m.dist.Rand()
		}
		rows[i] = row
	}
	return rows, nil
}
