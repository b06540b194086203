package interp

import (
	"testing"

	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGraph(t *testing.T, g *graph.Graph, inputs ...*tensor.Tensor) []graph.IValue {
	var stack graph.Stack
	for _, in := range inputs {
		stack.Push(graph.FromTensor(in))
	}
	require.NoError(t, Run(g, &stack))
	return stack
}

func TestElementwise(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	y := g.AddInput("y")
	add := g.AddNode("aten::add", 1, x, y)
	mul := g.AddNode("aten::mul", 1, add.Output(), y)
	g.RegisterOutput(mul.Output())

	results := runGraph(t, g,
		tensor.FromFloat32([]float32{1, 2, 3}, 3),
		tensor.FromFloat32([]float32{10, 20, 30}, 3))
	require.Len(t, results, 1)
	assert.Equal(t, []float32{110, 440, 990}, results[0].Tensor().Float32s())
}

func TestUnaryOps(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	relu := g.AddNode("aten::relu", 1, x)
	g.RegisterOutput(relu.Output())

	results := runGraph(t, g, tensor.FromFloat32([]float32{-1, 0, 2}, 3))
	assert.Equal(t, []float32{0, 0, 2}, results[0].Tensor().Float32s())
}

func TestMatMul(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	y := g.AddInput("y")
	mm := g.AddNode("aten::mm", 1, x, y)
	g.RegisterOutput(mm.Output())

	results := runGraph(t, g,
		tensor.FromFloat32([]float32{1, 2, 3, 4}, 2, 2),
		tensor.FromFloat32([]float32{5, 6, 7, 8}, 2, 2))
	assert.Equal(t, []int{2, 2}, results[0].Tensor().Dims())
	assert.Equal(t, []float32{19, 22, 43, 50}, results[0].Tensor().Float32s())
}

func TestVarMean(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	vm := g.AddNode("aten::var_mean", 2, x)
	g.RegisterOutput(vm.Outputs()[0])
	g.RegisterOutput(vm.Outputs()[1])

	results := runGraph(t, g, tensor.FromFloat32([]float32{1, 2, 3, 4}, 4))
	require.Len(t, results, 2)
	variance := results[0].Tensor().Float32s()[0]
	mean := results[1].Tensor().Float32s()[0]
	assert.InDelta(t, 5.0/3.0, variance, 1e-6)
	assert.InDelta(t, 2.5, mean, 1e-6)
}

func TestConstantAndListConstruct(t *testing.T) {
	g := graph.New()
	a := g.AddConstant(graph.FromInt(2))
	b := g.AddConstant(graph.FromInt(3))
	lst := g.AddNode("prim::ListConstruct", 1, a, b)
	g.RegisterOutput(lst.Output())

	var stack graph.Stack
	require.NoError(t, Run(g, &stack))
	require.Equal(t, 1, stack.Len())
	assert.Equal(t, []int64{2, 3}, stack[0].IntList())
}

func TestUnknownKind(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	n := g.AddNode("aten::definitely_not_an_op", 1, x)
	g.RegisterOutput(n.Output())

	var stack graph.Stack
	stack.Push(graph.FromTensor(tensor.FromFloat32([]float32{1}, 1)))
	err := Run(g, &stack)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no implementation")
}
