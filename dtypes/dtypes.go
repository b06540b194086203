// Package dtypes defines DType, the element types of host framework tensors, as seen by the
// tracing JIT that captures the subgraphs handed to gorelay.
//
// The set mirrors the host framework's scalar types, including the quantized integer variants.
// Not every DType has a backend mapping -- see compiler.ScalarTypeToRelayType.
package dtypes

import "github.com/pkg/errors"

// DType is the element type of a host tensor.
type DType int

//go:generate go tool stringer -type=DType dtypes.go

const (
	// Invalid represents an invalid (or not set) dtype.
	Invalid DType = iota

	Float32
	Float64
	Float16
	Int8
	Int32
	Int64
	Uint8
	Bool

	// Quantized variants: stored with the width of the underlying plain integer type.
	QInt8
	QUInt8
	QInt32
)

// Aliases matching the host framework's short scalar-type names.
const (
	Float  = Float32
	Double = Float64
	Half   = Float16
	Char   = Int8
	Int    = Int32
	Long   = Int64
	Byte   = Uint8
)

// Size returns the size in bytes of one element of the given dtype.
// Bool is stored as one byte.
func (dtype DType) Size() int {
	switch dtype {
	case Float64, Int64:
		return 8
	case Float32, Int32, QInt32:
		return 4
	case Float16:
		return 2
	case Int8, Uint8, Bool, QInt8, QUInt8:
		return 1
	}
	return 0
}

// IsQuantized returns whether the dtype is one of the quantized integer variants.
func (dtype DType) IsQuantized() bool {
	return dtype == QInt8 || dtype == QUInt8 || dtype == QInt32
}

// Unquantized returns the plain integer dtype underlying a quantized dtype, and
// the dtype itself for anything else.
func (dtype DType) Unquantized() DType {
	switch dtype {
	case QInt8:
		return Int8
	case QUInt8:
		return Uint8
	case QInt32:
		return Int32
	}
	return dtype
}

// Validate returns an error if the dtype is not one of the defined values.
func (dtype DType) Validate() error {
	if dtype <= Invalid || dtype > QInt32 {
		return errors.Errorf("invalid dtype %d", dtype)
	}
	return nil
}
