// Package kernels implements the float32 math shared by the host interpreter fallback
// (graph/interp) and the reference backend runtime (backend/graphrt). Keeping one
// implementation guarantees the two execution paths agree numerically.
package kernels

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Elementwise applies a binary op over same-length operands into out.
// out may alias a or b.
func Elementwise(op func(x, y float32) float32, a, b, out []float32) error {
	if len(a) != len(b) || len(a) != len(out) {
		return errors.Errorf("elementwise operands disagree in length: %d vs %d (out %d)", len(a), len(b), len(out))
	}
	for i := range a {
		out[i] = op(a[i], b[i])
	}
	return nil
}

func Add(x, y float32) float32 { return x + y }
func Sub(x, y float32) float32 { return x - y }
func Mul(x, y float32) float32 { return x * y }
func Div(x, y float32) float32 { return x / y }

// Map applies a unary op over a into out. out may alias a.
func Map(op func(x float32) float32, a, out []float32) error {
	if len(a) != len(out) {
		return errors.Errorf("unary operands disagree in length: %d vs %d", len(a), len(out))
	}
	for i := range a {
		out[i] = op(a[i])
	}
	return nil
}

func Relu(x float32) float32 { return math32.Max(x, 0) }

func Tanh(x float32) float32 { return math32.Tanh(x) }

func Sigmoid(x float32) float32 { return 1 / (1 + math32.Exp(-x)) }

// MatMul computes the [m, n] product of a [m, k] and b [k, n] into out.
func MatMul(a, b, out []float32, m, k, n int) error {
	if len(a) != m*k || len(b) != k*n || len(out) != m*n {
		return errors.Errorf("matmul operands disagree with dims (%d, %d) x (%d, %d)", m, k, k, n)
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var acc float32
			for l := 0; l < k; l++ {
				acc += a[i*k+l] * b[l*n+j]
			}
			out[i*n+j] = acc
		}
	}
	return nil
}

// VarMean returns the unbiased variance and the mean over all elements, matching the
// host framework's var_mean with default correction. Variance is NaN for fewer than
// two elements.
func VarMean(a []float32) (variance, mean float32) {
	n := float32(len(a))
	if len(a) == 0 {
		return math32.NaN(), math32.NaN()
	}
	for _, v := range a {
		mean += v
	}
	mean /= n
	if len(a) < 2 {
		return math32.NaN(), mean
	}
	for _, v := range a {
		d := v - mean
		variance += d * d
	}
	variance /= n - 1
	return variance, mean
}
