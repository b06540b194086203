package tensor

import (
	"testing"

	"github.com/gomlx/gorelay/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestNewIsAligned(t *testing.T) {
	for _, dims := range [][]int{{}, {1}, {2, 3}, {7, 5, 3}} {
		tensor := New(dtypes.Float32, dims...)
		assert.True(t, tensor.IsAligned(), "tensors allocated by New must be 64-byte aligned (dims=%v)", dims)
	}
}

func TestFromBytesMisaligned(t *testing.T) {
	// Deliberately offset the storage so it cannot be 64-byte aligned.
	raw := make([]byte, 64+2*4)
	misaligned := must.M1(FromBytes(dtypes.Float32, raw[4:4+2*4], 2))
	assert.False(t, misaligned.IsAligned())

	_, err := FromBytes(dtypes.Float32, raw[:3], 2)
	require.Error(t, err)
}

func TestFromFloat32(t *testing.T) {
	tensor := FromFloat32([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, []int{2, 3}, tensor.Dims())
	assert.Equal(t, 6, tensor.Size())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Float32s())
	assert.Panics(t, func() { FromFloat32([]float32{1}, 3) })
}

func TestToFloat32Identity(t *testing.T) {
	tensor := FromFloat32([]float32{1, 2}, 2)
	converted := must.M1(tensor.ToFloat32())
	assert.Same(t, tensor, converted, "float32 tensors convert to themselves, preserving alignment")
}

func TestToFloat32Conversions(t *testing.T) {
	f64 := New(dtypes.Float64, 2)
	copy(view[float64](f64), []float64{1.5, -2.5})
	assert.Equal(t, []float32{1.5, -2.5}, must.M1(f64.ToFloat32()).Float32s())

	f16 := New(dtypes.Float16, 2)
	copy(view[float16.Float16](f16), []float16.Float16{float16.Fromfloat32(0.5), float16.Fromfloat32(-1)})
	assert.Equal(t, []float32{0.5, -1}, must.M1(f16.ToFloat32()).Float32s())

	i64 := New(dtypes.Int64, 3)
	copy(view[int64](i64), []int64{-1, 0, 42})
	assert.Equal(t, []float32{-1, 0, 42}, must.M1(i64.ToFloat32()).Float32s())

	b := New(dtypes.Bool, 2)
	copy(view[bool](b), []bool{true, false})
	assert.Equal(t, []float32{1, 0}, must.M1(b.ToFloat32()).Float32s())

	// Quantized dtypes convert through their underlying integer width.
	q := New(dtypes.QUInt8, 2)
	copy(view[uint8](q), []uint8{0, 255})
	assert.Equal(t, []float32{0, 255}, must.M1(q.ToFloat32()).Float32s())

	_, err := New(dtypes.Invalid, 1).ToFloat32()
	require.Error(t, err)
}

func TestMakeVariable(t *testing.T) {
	tensor := FromFloat32([]float32{1, 2}, 2)
	assert.False(t, tensor.RequiresGrad())
	v := MakeVariable(tensor)
	assert.True(t, v.RequiresGrad())
	// Storage is shared, not copied.
	v.Float32s()[0] = 9
	assert.Equal(t, float32(9), tensor.Float32s()[0])
}
