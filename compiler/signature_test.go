package compiler

import (
	"testing"

	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/tensor"
	"github.com/stretchr/testify/assert"
)

func TestSignatureOf(t *testing.T) {
	a := graph.FromTensor(tensor.New(dtypes.Float32, 2, 3))
	b := graph.FromTensor(tensor.New(dtypes.Int64, 4))
	scalar := graph.FromTensor(tensor.New(dtypes.Float32))

	assert.Equal(t, Signature("float32[2x3]"), signatureOf([]graph.IValue{a}))
	assert.Equal(t, Signature("float32[2x3];int64[4]"), signatureOf([]graph.IValue{a, b}))
	assert.Equal(t, Signature("float32[]"), signatureOf([]graph.IValue{scalar}))
	assert.Equal(t, Signature("Int;float32[2x3]"), signatureOf([]graph.IValue{graph.FromInt(7), a}))
}

func TestSignatureIgnoresData(t *testing.T) {
	a := graph.FromTensor(tensor.FromFloat32([]float32{1, 2, 3, 4}, 2, 2))
	b := graph.FromTensor(tensor.FromFloat32([]float32{9, 9, 9, 9}, 2, 2))
	c := graph.FromTensor(tensor.FromFloat32([]float32{1, 2, 3, 4}, 4))

	assert.Equal(t, signatureOf([]graph.IValue{a}), signatureOf([]graph.IValue{b}))
	assert.NotEqual(t, signatureOf([]graph.IValue{a}), signatureOf([]graph.IValue{c}))
}
