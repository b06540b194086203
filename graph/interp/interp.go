// Package interp executes a host subgraph directly, without involving the backend
// compiler. It is the fallback path the compiler uses when translation fails under
// non-strict policy, and the reference the compiled path is checked against in tests.
package interp

import (
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/internal/kernels"
	"github.com/gomlx/gorelay/tensor"
	"github.com/pkg/errors"
)

// evalFn executes one node given its resolved inputs and returns one IValue per output.
type evalFn func(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error)

var evalTable = map[string]evalFn{
	"aten::add":           binaryOp(kernels.Add),
	"aten::sub":           binaryOp(kernels.Sub),
	"aten::mul":           binaryOp(kernels.Mul),
	"aten::div":           binaryOp(kernels.Div),
	"aten::relu":          unaryOp(kernels.Relu),
	"aten::tanh":          unaryOp(kernels.Tanh),
	"aten::sigmoid":       unaryOp(kernels.Sigmoid),
	"aten::mm":            evalMatMul,
	"aten::var_mean":      evalVarMean,
	"prim::ListConstruct": evalListConstruct,
}

// Run executes the subgraph against the stack: the declared number of inputs is popped,
// and the outputs are pushed in declared order.
func Run(g *graph.Graph, stack *graph.Stack) error {
	numInputs := len(g.Inputs())
	if stack.Len() < numInputs {
		return errors.Errorf("interpreter: subgraph declares %d inputs but the stack holds %d values", numInputs, stack.Len())
	}
	env := make(map[*graph.Value]graph.IValue)
	args := stack.Last(numInputs)
	for i, input := range g.Inputs() {
		env[input] = args[i]
	}
	stack.Drop(numInputs)

	// Nodes are stored in topological order, so a single pass suffices.
	for _, node := range g.Nodes() {
		if node.Kind() == graph.ConstantKind {
			iv, _ := node.Output().IValue()
			env[node.Output()] = iv
			continue
		}
		eval, found := evalTable[node.Kind()]
		if !found {
			return errors.Errorf("interpreter: no implementation for %s", node.Kind())
		}
		inputs := make([]graph.IValue, len(node.Inputs()))
		for i, in := range node.Inputs() {
			iv, found := env[in]
			if !found {
				return errors.Errorf("interpreter: %s consumes a value that was never produced", node.Kind())
			}
			inputs[i] = iv
		}
		outputs, err := eval(node, inputs)
		if err != nil {
			return errors.WithMessagef(err, "interpreter: evaluating %s", node.Kind())
		}
		if len(outputs) != len(node.Outputs()) {
			return errors.Errorf("interpreter: %s produced %d values for %d outputs", node.Kind(), len(outputs), len(node.Outputs()))
		}
		for i, out := range node.Outputs() {
			env[out] = outputs[i]
		}
	}

	for _, out := range g.Outputs() {
		iv, found := env[out]
		if !found {
			return errors.Errorf("interpreter: subgraph output was never produced")
		}
		stack.Push(iv)
	}
	return nil
}

func binaryOp(op func(x, y float32) float32) evalFn {
	return func(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error) {
		if len(inputs) != 2 {
			return nil, errors.Errorf("expected 2 inputs, got %d", len(inputs))
		}
		a, err := inputs[0].Tensor().ToFloat32()
		if err != nil {
			return nil, err
		}
		b, err := inputs[1].Tensor().ToFloat32()
		if err != nil {
			return nil, err
		}
		out := tensor.New(a.DType(), a.Dims()...)
		if err := kernels.Elementwise(op, a.Float32s(), b.Float32s(), out.Float32s()); err != nil {
			return nil, err
		}
		return []graph.IValue{graph.FromTensor(out)}, nil
	}
}

func unaryOp(op func(x float32) float32) evalFn {
	return func(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error) {
		if len(inputs) != 1 {
			return nil, errors.Errorf("expected 1 input, got %d", len(inputs))
		}
		a, err := inputs[0].Tensor().ToFloat32()
		if err != nil {
			return nil, err
		}
		out := tensor.New(a.DType(), a.Dims()...)
		if err := kernels.Map(op, a.Float32s(), out.Float32s()); err != nil {
			return nil, err
		}
		return []graph.IValue{graph.FromTensor(out)}, nil
	}
}

func evalMatMul(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error) {
	if len(inputs) != 2 {
		return nil, errors.Errorf("expected 2 inputs, got %d", len(inputs))
	}
	a, err := inputs[0].Tensor().ToFloat32()
	if err != nil {
		return nil, err
	}
	b, err := inputs[1].Tensor().ToFloat32()
	if err != nil {
		return nil, err
	}
	if len(a.Dims()) != 2 || len(b.Dims()) != 2 || a.Dims()[1] != b.Dims()[0] {
		return nil, errors.Errorf("mm requires [m, k] x [k, n] operands, got %v x %v", a.Dims(), b.Dims())
	}
	m, k, n := a.Dims()[0], a.Dims()[1], b.Dims()[1]
	out := tensor.New(a.DType(), m, n)
	if err := kernels.MatMul(a.Float32s(), b.Float32s(), out.Float32s(), m, k, n); err != nil {
		return nil, err
	}
	return []graph.IValue{graph.FromTensor(out)}, nil
}

func evalVarMean(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error) {
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected 1 input, got %d", len(inputs))
	}
	a, err := inputs[0].Tensor().ToFloat32()
	if err != nil {
		return nil, err
	}
	variance, mean := kernels.VarMean(a.Float32s())
	return []graph.IValue{
		graph.FromTensor(tensor.FromFloat32([]float32{variance})),
		graph.FromTensor(tensor.FromFloat32([]float32{mean})),
	}, nil
}

func evalListConstruct(node *graph.Node, inputs []graph.IValue) ([]graph.IValue, error) {
	ints := make([]int64, len(inputs))
	for i, iv := range inputs {
		ints[i] = iv.Int()
	}
	return []graph.IValue{graph.FromIntList(ints)}, nil
}
