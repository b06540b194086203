package graphrt

import (
	"github.com/gomlx/gorelay/internal/kernels"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
)

// kernelFn evaluates one operator over NDArray arguments; multi-result operators
// return several arrays, projected by "tuple_get" nodes.
type kernelFn func(args []*relay.NDArray) ([]*relay.NDArray, error)

var kernelTable = map[string]kernelFn{
	"add":       binaryKernel(kernels.Add),
	"subtract":  binaryKernel(kernels.Sub),
	"multiply":  binaryKernel(kernels.Mul),
	"divide":    binaryKernel(kernels.Div),
	"nn.relu":   unaryKernel(kernels.Relu),
	"tanh":      unaryKernel(kernels.Tanh),
	"sigmoid":   unaryKernel(kernels.Sigmoid),
	"nn.matmul": matmulKernel,
	"var_mean":  varMeanKernel,
}

func checkFloat32(args ...*relay.NDArray) error {
	for i, arg := range args {
		if arg.DType() != relay.Float(32) {
			return errors.Errorf("argument %d has dtype %s, kernels operate on float32", i, arg.DType())
		}
	}
	return nil
}

func binaryKernel(op func(x, y float32) float32) kernelFn {
	return func(args []*relay.NDArray) ([]*relay.NDArray, error) {
		if len(args) != 2 {
			return nil, errors.Errorf("expected 2 arguments, got %d", len(args))
		}
		if err := checkFloat32(args...); err != nil {
			return nil, err
		}
		out := relay.Empty(args[0].Dims(), relay.Float(32))
		if err := kernels.Elementwise(op, args[0].Float32s(), args[1].Float32s(), out.Float32s()); err != nil {
			return nil, err
		}
		return []*relay.NDArray{out}, nil
	}
}

func unaryKernel(op func(x float32) float32) kernelFn {
	return func(args []*relay.NDArray) ([]*relay.NDArray, error) {
		if len(args) != 1 {
			return nil, errors.Errorf("expected 1 argument, got %d", len(args))
		}
		if err := checkFloat32(args...); err != nil {
			return nil, err
		}
		out := relay.Empty(args[0].Dims(), relay.Float(32))
		if err := kernels.Map(op, args[0].Float32s(), out.Float32s()); err != nil {
			return nil, err
		}
		return []*relay.NDArray{out}, nil
	}
}

func matmulKernel(args []*relay.NDArray) ([]*relay.NDArray, error) {
	if len(args) != 2 {
		return nil, errors.Errorf("expected 2 arguments, got %d", len(args))
	}
	if err := checkFloat32(args...); err != nil {
		return nil, err
	}
	a, b := args[0], args[1]
	if len(a.Dims()) != 2 || len(b.Dims()) != 2 || a.Dims()[1] != b.Dims()[0] {
		return nil, errors.Errorf("nn.matmul requires [m, k] x [k, n] operands, got %v x %v", a.Dims(), b.Dims())
	}
	m, k, n := a.Dims()[0], a.Dims()[1], b.Dims()[1]
	out := relay.Empty([]int{m, n}, relay.Float(32))
	if err := kernels.MatMul(a.Float32s(), b.Float32s(), out.Float32s(), m, k, n); err != nil {
		return nil, err
	}
	return []*relay.NDArray{out}, nil
}

// varMeanKernel returns (variance, mean) over all elements, as two scalars.
func varMeanKernel(args []*relay.NDArray) ([]*relay.NDArray, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("expected 1 argument, got %d", len(args))
	}
	if err := checkFloat32(args...); err != nil {
		return nil, err
	}
	variance, mean := kernels.VarMean(args[0].Float32s())
	varOut := relay.Empty(nil, relay.Float(32))
	varOut.Float32s()[0] = variance
	meanOut := relay.Empty(nil, relay.Float(32))
	meanOut.Float32s()[0] = mean
	return []*relay.NDArray{varOut, meanOut}, nil
}
