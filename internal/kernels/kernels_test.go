package kernels

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementwise(t *testing.T) {
	out := make([]float32, 3)
	require.NoError(t, Elementwise(Add, []float32{1, 2, 3}, []float32{10, 20, 30}, out))
	assert.Equal(t, []float32{11, 22, 33}, out)

	require.NoError(t, Elementwise(Div, []float32{1, 1, 1}, []float32{2, 4, 8}, out))
	assert.Equal(t, []float32{0.5, 0.25, 0.125}, out)

	require.Error(t, Elementwise(Add, []float32{1}, []float32{1, 2}, out))
}

func TestElementwiseAliases(t *testing.T) {
	a := []float32{1, 2, 3}
	require.NoError(t, Elementwise(Mul, a, a, a))
	assert.Equal(t, []float32{1, 4, 9}, a)
}

func TestMap(t *testing.T) {
	out := make([]float32, 3)
	require.NoError(t, Map(Relu, []float32{-1, 0, 2}, out))
	assert.Equal(t, []float32{0, 0, 2}, out)

	require.NoError(t, Map(Sigmoid, []float32{0, 0, 0}, out))
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, out)

	require.Error(t, Map(Tanh, []float32{1, 2}, out))
}

func TestMatMul(t *testing.T) {
	out := make([]float32, 4)
	a := []float32{1, 2, 3, 4, 5, 6}    // [2, 3]
	b := []float32{7, 8, 9, 10, 11, 12} // [3, 2]
	require.NoError(t, MatMul(a, b, out, 2, 3, 2))
	assert.Equal(t, []float32{58, 64, 139, 154}, out)

	require.Error(t, MatMul(a, b, out, 2, 2, 2))
}

func TestVarMean(t *testing.T) {
	variance, mean := VarMean([]float32{1, 2, 3, 4})
	assert.InDelta(t, float32(5)/3, variance, 1e-6)
	assert.InDelta(t, 2.5, mean, 1e-6)

	variance, mean = VarMean([]float32{7})
	assert.True(t, math32.IsNaN(variance))
	assert.Equal(t, float32(7), mean)

	variance, mean = VarMean(nil)
	assert.True(t, math32.IsNaN(variance))
	assert.True(t, math32.IsNaN(mean))
}
