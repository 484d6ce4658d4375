// Package likelihood approximates the marginal log likelihood of the
// Gaussian random-effects panel model y_it = x_it·beta + c_i + u_it.
//
// The individual effect c_i is unobserved, so each individual's likelihood
// is an integral over c_i with no closed form. Two interchangeable
// approximations are provided:
//
//   - [Simulated]: averages the conditional likelihood over R realizations
//     of the effect, supplied by a [Strategy] ([FixedGrid] or [MonteCarlo])
//   - [Quadrature]: a weighted sum over Gauss-Hermite nodes rescaled to the
//     standard-normal measure
//
// Both accumulate in log space with a max-shift, so evaluation stays finite
// even when residuals are tens of standard deviations out.
//
// # Thread Safety
//
// Evaluators are safe for sequential reuse. A [MonteCarlo] strategy owns
// its random stream and must not be shared across goroutines.
package likelihood
