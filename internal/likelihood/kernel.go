package likelihood

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/panelml/internal/gauss"
	"github.com/san-kum/panelml/internal/panel"
)

// logConditional computes the log likelihood of one individual's time
// series given a standardized realization c of the random effect. Logs are
// summed across periods rather than multiplying raw densities, so the value
// stays finite for moderate and large T.
func logConditional(y []float64, x [][]float64, th panel.Theta, c float64) float64 {
	beta := th.Beta()
	su := th.SigmaU()
	sc := th.SigmaC()
	logSu := math.Log(su)

	ll := 0.0
	for t := range y {
		z := (y[t] - floats.Dot(x[t], beta) - sc*c) / su
		ll += gauss.LogPhi(z) - logSu
	}
	return ll
}

// logMeanExp computes log((1/n) sum exp(a_i)) with a max-shift so that the
// exponentials never overflow and at least one term is exactly 1.
func logMeanExp(a []float64) float64 {
	return logSumExp(a) - math.Log(float64(len(a)))
}

func logSumExp(a []float64) float64 {
	max := math.Inf(-1)
	for _, v := range a {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, v := range a {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}

// logSumExpWeighted computes log(sum w_i exp(a_i)) for non-negative weights
// with the same stabilizing shift.
func logSumExpWeighted(a, w []float64) float64 {
	max := math.Inf(-1)
	for _, v := range a {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for i, v := range a {
		sum += w[i] * math.Exp(v-max)
	}
	return max + math.Log(sum)
}
