package relay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TypeCode is the kind of a backend element type, following the DLPack convention.
type TypeCode uint8

const (
	CodeInt TypeCode = iota
	CodeUInt
	CodeFloat
)

// DType is a backend element type: a type code plus a bit width.
// Bool is represented as a 1-bit unsigned integer, per the backend convention.
type DType struct {
	Code TypeCode
	Bits uint8
}

// Float returns a floating-point DType of the given bit width.
func Float(bits int) DType { return DType{Code: CodeFloat, Bits: uint8(bits)} }

// Int returns a signed integer DType of the given bit width.
func Int(bits int) DType { return DType{Code: CodeInt, Bits: uint8(bits)} }

// UInt returns an unsigned integer DType of the given bit width.
func UInt(bits int) DType { return DType{Code: CodeUInt, Bits: uint8(bits)} }

// BoolType returns the backend's boolean type, a 1-bit unsigned integer.
func BoolType() DType { return UInt(1) }

// Size returns the storage size in bytes of one element. Bool takes one byte.
func (dtype DType) Size() int {
	return (int(dtype.Bits) + 7) / 8
}

// String returns the backend's textual type name, e.g. "float32", "int32", "bool".
func (dtype DType) String() string {
	if dtype == BoolType() {
		return "bool"
	}
	switch dtype.Code {
	case CodeInt:
		return fmt.Sprintf("int%d", dtype.Bits)
	case CodeUInt:
		return fmt.Sprintf("uint%d", dtype.Bits)
	case CodeFloat:
		return fmt.Sprintf("float%d", dtype.Bits)
	}
	return fmt.Sprintf("dtype(code=%d, bits=%d)", dtype.Code, dtype.Bits)
}

// ParseDType parses the backend's textual type name, the inverse of DType.String.
func ParseDType(s string) (DType, error) {
	if s == "bool" {
		return BoolType(), nil
	}
	for prefix, code := range map[string]TypeCode{"float": CodeFloat, "uint": CodeUInt, "int": CodeInt} {
		if strings.HasPrefix(s, prefix) {
			bits, err := strconv.Atoi(s[len(prefix):])
			if err != nil || bits <= 0 || bits > 64 {
				return DType{}, errors.Errorf("cannot parse backend dtype %q", s)
			}
			return DType{Code: code, Bits: uint8(bits)}, nil
		}
	}
	return DType{}, errors.Errorf("cannot parse backend dtype %q", s)
}
