package compiler

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// convertValueToRelay translates a tensor-valued host value into a typed backend input
// variable. The value must carry a complete shape and element type, inferring it from a
// bound constant tensor if one is attached; an incomplete type at this point is a
// malformed subgraph, which panics.
func convertValueToRelay(value *graph.Value) (*relay.Var, error) {
	if iv, ok := value.IValue(); ok && iv.IsTensor() {
		value.InferTypeFrom(iv.Tensor())
	}
	if !value.IsCompleteTensor() {
		exceptions.Panicf("gorelay: value %%%d has no complete tensor type, cannot translate", value.ID())
	}
	typ := value.Type()
	relayType, err := ScalarTypeToRelayType(typ.DType)
	if err != nil {
		return nil, err
	}
	dims := make([]int32, len(typ.Sizes))
	for i, size := range typ.Sizes {
		dims[i] = int32(size)
	}
	name := value.DebugName()
	if name == "" {
		name = "v"
	}
	// The id suffix keeps names unique even when debug names collide.
	return &relay.Var{
		Name: fmt.Sprintf("%s_%d", name, value.ID()),
		Type: relay.TensorType{Dims: dims, DType: relayType},
	}, nil
}

// convertIValueToRelay translates a bound non-tensor constant into a backend constant
// expression. Floats narrow to float32 and integers to int32, failing with
// ErrNumericOverflow outside the representable range; None is encoded as the uint64
// sentinel constant; integer lists become tuples of int32 constants.
func convertIValueToRelay(iv graph.IValue) (relay.Expr, error) {
	switch {
	case iv.IsDouble():
		d := iv.Double()
		if math.IsNaN(d) || d > float64(math32.MaxFloat32) || d < -float64(math32.MaxFloat32) {
			return nil, errors.Wrapf(ErrNumericOverflow, "float constant %g does not fit in float32", d)
		}
		a := relay.Empty(nil, relay.Float(32))
		a.Float32s()[0] = float32(d)
		return &relay.Constant{Value: a}, nil
	case iv.IsInt():
		v, err := narrowInt32(iv.Int())
		if err != nil {
			return nil, err
		}
		a := relay.Empty(nil, relay.Int(32))
		a.Int32s()[0] = v
		return &relay.Constant{Value: a}, nil
	case iv.IsBool():
		a := relay.Empty(nil, relay.BoolType())
		a.Bools()[0] = iv.Bool()
		return &relay.Constant{Value: a}, nil
	case iv.IsNone():
		// HACK: the backend has no optional/unit type; None travels as a reserved
		// uint64 bit pattern.
		a := relay.Empty(nil, relay.UInt(64))
		a.Uint64s()[0] = relay.NoneSentinel
		return &relay.Constant{Value: a}, nil
	case iv.IsIntList():
		fields := make([]relay.Expr, 0, len(iv.IntList()))
		for _, elem := range iv.IntList() {
			v, err := narrowInt32(elem)
			if err != nil {
				return nil, err
			}
			a := relay.Empty(nil, relay.Int(32))
			a.Int32s()[0] = v
			fields = append(fields, &relay.Constant{Value: a})
		}
		return &relay.Tuple{Fields: fields}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedConstant, "cannot convert value %s to a backend expression", iv)
}

// narrowInt32 narrows an integer to int32, failing with ErrNumericOverflow instead of
// wrapping around.
func narrowInt32[T constraints.Signed](v T) (int32, error) {
	if int64(v) > math.MaxInt32 || int64(v) < math.MinInt32 {
		return 0, errors.Wrapf(ErrNumericOverflow, "integer constant %d does not fit in int32", v)
	}
	return int32(v), nil
}
