package compiler

import (
	"testing"

	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/ops"
	"github.com/gomlx/gorelay/relay"
	"github.com/gomlx/gorelay/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// typedInput adds a graph input annotated with a float32 shape.
func typedInput(g *graph.Graph, name string, dims ...int) *graph.Value {
	v := g.AddInput(name)
	v.InferTypeFrom(tensor.New(dtypes.Float32, dims...))
	return v
}

func TestTranslateSimple(t *testing.T) {
	g := graph.New()
	x := typedInput(g, "x", 2, 3)
	y := typedInput(g, "y", 2, 3)
	add := g.AddNode("aten::add", 1, x, y)
	g.RegisterOutput(add.Output())

	fn, consumed, err := convertGraphToRelay(g, ops.Default())
	require.NoError(t, err)
	assert.Equal(t, []*graph.Value{x, y}, consumed)
	require.Len(t, fn.Params, 2)

	body := fn.Body.(*relay.Tuple)
	require.Len(t, body.Fields, 1)
	call := body.Fields[0].(*relay.Call)
	assert.Equal(t, "add", call.Op)
	assert.Same(t, fn.Params[0], call.Args[0])
	assert.Same(t, fn.Params[1], call.Args[1])
}

func TestTranslateMultiOutput(t *testing.T) {
	// One two-output node consuming both declared inputs: the result tuple must be two
	// projections (indices 0 and 1) of a single mapped call.
	r := ops.NewRegistry()
	r.Register("test::minmax", func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
		return &relay.Call{Op: "minmax", Args: inputs}, nil
	})

	g := graph.New()
	x := typedInput(g, "x", 4)
	y := typedInput(g, "y", 4)
	mm := g.AddNode("test::minmax", 2, x, y)
	g.RegisterOutput(mm.Outputs()[0])
	g.RegisterOutput(mm.Outputs()[1])

	fn, _, err := convertGraphToRelay(g, r)
	require.NoError(t, err)

	body := fn.Body.(*relay.Tuple)
	require.Len(t, body.Fields, 2)
	first := body.Fields[0].(*relay.TupleGetItem)
	second := body.Fields[1].(*relay.TupleGetItem)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 1, second.Index)
	assert.Same(t, first.Tuple, second.Tuple, "both projections must share one call")
	assert.Equal(t, "minmax", first.Tuple.(*relay.Call).Op)
}

func TestTranslatePromotesConstantTensors(t *testing.T) {
	g := graph.New()
	x := typedInput(g, "x", 2)
	c := g.AddConstant(graph.FromTensor(tensor.FromFloat32([]float32{10, 20}, 2)))
	add := g.AddNode("aten::add", 1, x, c)
	g.RegisterOutput(add.Output())

	fn, consumed, err := convertGraphToRelay(g, ops.Default())
	require.NoError(t, err)
	// The constant tensor becomes a function parameter, not an inlined literal.
	assert.Equal(t, []*graph.Value{x, c}, consumed)
	require.Len(t, fn.Params, 2)
	call := fn.Body.(*relay.Tuple).Fields[0].(*relay.Call)
	assert.Same(t, fn.Params[1], call.Args[1])
}

func TestTranslateInlinesScalarConstants(t *testing.T) {
	g := graph.New()
	x := typedInput(g, "x", 2)
	c := g.AddConstant(graph.FromDouble(0.5))
	mul := g.AddNode("aten::mul", 1, x, c)
	g.RegisterOutput(mul.Output())

	fn, consumed, err := convertGraphToRelay(g, ops.Default())
	require.NoError(t, err)
	assert.Equal(t, []*graph.Value{x}, consumed)
	require.Len(t, fn.Params, 1)
	call := fn.Body.(*relay.Tuple).Fields[0].(*relay.Call)
	constant := call.Args[1].(*relay.Constant)
	assert.Equal(t, float32(0.5), constant.Value.Float32s()[0])
}

func TestTranslateUnmappedOperator(t *testing.T) {
	g := graph.New()
	x := typedInput(g, "x", 2)
	n := g.AddNode("aten::definitely_not_an_op", 1, x)
	g.RegisterOutput(n.Output())

	_, _, err := convertGraphToRelay(g, ops.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ops.ErrNoLowering))
}

func TestTranslateToleratesUnreachableConsumers(t *testing.T) {
	// A consumer with an input that never becomes available is skipped, as long as it
	// doesn't feed a declared output.
	g := graph.New()
	x := typedInput(g, "x", 2)
	rand := g.AddNode("aten::rand", 1) // no inputs: never enters the frontier
	dead := g.AddNode("aten::add", 1, x, rand.Output())
	_ = dead
	relu := g.AddNode("aten::relu", 1, x)
	g.RegisterOutput(relu.Output())

	fn, consumed, err := convertGraphToRelay(g, ops.Default())
	require.NoError(t, err)
	assert.Equal(t, []*graph.Value{x}, consumed)
	call := fn.Body.(*relay.Tuple).Fields[0].(*relay.Call)
	assert.Equal(t, "nn.relu", call.Op)
}

func TestTranslateConstantOutputs(t *testing.T) {
	// Constant-valued outputs have no consumers and never enter the frontier, yet must
	// still translate: scalars inline, constant tensors promote to parameters.
	g := graph.New()
	x := typedInput(g, "x", 2)
	relu := g.AddNode("aten::relu", 1, x)
	g.RegisterOutput(relu.Output())
	g.RegisterOutput(g.AddConstant(graph.FromDouble(2.5)))
	ct := g.AddConstant(graph.FromTensor(tensor.FromFloat32([]float32{1, 2}, 2)))
	g.RegisterOutput(ct)

	fn, consumed, err := convertGraphToRelay(g, ops.Default())
	require.NoError(t, err)
	assert.Equal(t, []*graph.Value{x, ct}, consumed)
	require.Len(t, fn.Params, 2)

	body := fn.Body.(*relay.Tuple)
	require.Len(t, body.Fields, 3)
	scalar := body.Fields[1].(*relay.Constant)
	assert.Equal(t, float32(2.5), scalar.Value.Float32s()[0])
	assert.Same(t, fn.Params[1], body.Fields[2])
}

func TestTranslateUntranslatedOutputIsFatal(t *testing.T) {
	g := graph.New()
	x := typedInput(g, "x", 2)
	rand := g.AddNode("aten::rand", 1) // unreachable from the inputs
	dead := g.AddNode("aten::add", 1, x, rand.Output())
	g.RegisterOutput(dead.Output())

	assert.Panics(t, func() { _, _, _ = convertGraphToRelay(g, ops.Default()) })
}

func TestTranslateIncompleteInputIsFatal(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x") // no type annotation
	relu := g.AddNode("aten::relu", 1, x)
	g.RegisterOutput(relu.Output())

	assert.Panics(t, func() { _, _, _ = convertGraphToRelay(g, ops.Default()) })
}

func TestTranslateDiamond(t *testing.T) {
	// A consumer fed from two different frontier branches must wait until both are
	// translated, then translate exactly once.
	calls := 0
	r := ops.NewRegistry()
	r.Register("aten::relu", func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
		return &relay.Call{Op: "nn.relu", Args: inputs}, nil
	})
	r.Register("aten::add", func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
		calls++
		return &relay.Call{Op: "add", Args: inputs}, nil
	})

	g := graph.New()
	x := typedInput(g, "x", 2)
	left := g.AddNode("aten::relu", 1, x)
	right := g.AddNode("aten::relu", 1, left.Output())
	join := g.AddNode("aten::add", 1, left.Output(), right.Output())
	g.RegisterOutput(join.Output())

	fn, _, err := convertGraphToRelay(g, r)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "the join node must be mapped exactly once")
	call := fn.Body.(*relay.Tuple).Fields[0].(*relay.Call)
	assert.Equal(t, "add", call.Op)

	assert.Contains(t, fn.String(), "nn.relu")
}
