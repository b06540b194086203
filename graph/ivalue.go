package graph

import (
	"fmt"
	"strings"

	"github.com/gomlx/gorelay/tensor"
)

// Kind tags the variant held by an IValue.
type Kind int

const (
	KindNone Kind = iota
	KindTensor
	KindDouble
	KindInt
	KindBool
	KindIntList
)

// IValue is the host framework's runtime value: a tagged variant over the kinds a traced
// subgraph can bind as constants or receive as runtime arguments.
//
// The zero IValue is None.
type IValue struct {
	kind   Kind
	tensor *tensor.Tensor
	double float64
	num    int64
	flag   bool
	ints   []int64
}

// None returns the None IValue.
func None() IValue { return IValue{} }

// FromTensor wraps a tensor.
func FromTensor(t *tensor.Tensor) IValue { return IValue{kind: KindTensor, tensor: t} }

// FromDouble wraps a float.
func FromDouble(v float64) IValue { return IValue{kind: KindDouble, double: v} }

// FromInt wraps an integer.
func FromInt(v int64) IValue { return IValue{kind: KindInt, num: v} }

// FromBool wraps a boolean.
func FromBool(v bool) IValue { return IValue{kind: KindBool, flag: v} }

// FromIntList wraps an integer list. The slice is aliased, not copied.
func FromIntList(v []int64) IValue { return IValue{kind: KindIntList, ints: v} }

// Kind returns the variant tag.
func (iv IValue) Kind() Kind { return iv.kind }

func (iv IValue) IsNone() bool    { return iv.kind == KindNone }
func (iv IValue) IsTensor() bool  { return iv.kind == KindTensor }
func (iv IValue) IsDouble() bool  { return iv.kind == KindDouble }
func (iv IValue) IsInt() bool     { return iv.kind == KindInt }
func (iv IValue) IsBool() bool    { return iv.kind == KindBool }
func (iv IValue) IsIntList() bool { return iv.kind == KindIntList }

// Tensor returns the held tensor; it panics on other kinds.
func (iv IValue) Tensor() *tensor.Tensor {
	iv.check(KindTensor)
	return iv.tensor
}

// Double returns the held float; it panics on other kinds.
func (iv IValue) Double() float64 {
	iv.check(KindDouble)
	return iv.double
}

// Int returns the held integer; it panics on other kinds.
func (iv IValue) Int() int64 {
	iv.check(KindInt)
	return iv.num
}

// Bool returns the held boolean; it panics on other kinds.
func (iv IValue) Bool() bool {
	iv.check(KindBool)
	return iv.flag
}

// IntList returns the held integer list; it panics on other kinds.
func (iv IValue) IntList() []int64 {
	iv.check(KindIntList)
	return iv.ints
}

func (iv IValue) check(want Kind) {
	if iv.kind != want {
		panic(fmt.Sprintf("IValue holds %s, accessed as %s", iv.kind, want))
	}
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTensor:
		return "Tensor"
	case KindDouble:
		return "Double"
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindIntList:
		return "IntList"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (iv IValue) String() string {
	switch iv.kind {
	case KindNone:
		return "None"
	case KindTensor:
		return fmt.Sprintf("Tensor(%s%v)", iv.tensor.DType(), iv.tensor.Dims())
	case KindDouble:
		return fmt.Sprintf("%g", iv.double)
	case KindInt:
		return fmt.Sprintf("%d", iv.num)
	case KindBool:
		return fmt.Sprintf("%t", iv.flag)
	case KindIntList:
		parts := make([]string, len(iv.ints))
		for i, v := range iv.ints {
			parts[i] = fmt.Sprintf("%d", v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("IValue(kind=%d)", int(iv.kind))
}
