// Package tensor implements the host framework's dense tensor, as far as gorelay needs
// it: typed, shaped, flat storage that can be handed to the backend runtime either
// zero-copy (when 64-byte aligned) or through a copying path.
package tensor

import (
	"unsafe"

	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/internal/memalign"
	"github.com/pkg/errors"
)

// BufferAlignment is the alignment (in bytes) a tensor's storage must have for the
// backend to accept it on the zero-copy input path.
const BufferAlignment = memalign.Alignment

// Tensor is a dense host tensor. Storage is row-major flat data.
type Tensor struct {
	dtype dtypes.DType
	dims  []int
	data  []byte

	// requiresGrad marks the tensor as a differentiable variable for the host autograd.
	requiresGrad bool
}

// New creates a zero-initialized tensor with 64-byte aligned storage.
func New(dtype dtypes.DType, dims ...int) *Tensor {
	size := dtype.Size()
	for _, dim := range dims {
		size *= dim
	}
	return &Tensor{
		dtype: dtype,
		dims:  append([]int{}, dims...),
		data:  memalign.Bytes(size),
	}
}

// FromFloat32 creates a float32 tensor with a copy of the given values.
// It panics if the number of values doesn't match the shape.
func FromFloat32(values []float32, dims ...int) *Tensor {
	t := New(dtypes.Float32, dims...)
	if len(values) != t.Size() {
		panic(errors.Errorf("tensor shape %v requires %d values, got %d", dims, t.Size(), len(values)))
	}
	copy(t.Float32s(), values)
	return t
}

// FromBytes creates a tensor that aliases the given storage, without copying.
// The storage alignment (hence zero-copy eligibility) follows the given slice.
func FromBytes(dtype dtypes.DType, data []byte, dims ...int) (*Tensor, error) {
	size := dtype.Size()
	for _, dim := range dims {
		size *= dim
	}
	if len(data) != size {
		return nil, errors.Errorf("tensor of dtype %s and shape %v requires %d bytes, got %d", dtype, dims, size, len(data))
	}
	return &Tensor{dtype: dtype, dims: append([]int{}, dims...), data: data}, nil
}

// DType returns the element type.
func (t *Tensor) DType() dtypes.DType { return t.dtype }

// Dims returns the shape. The returned slice must not be modified.
func (t *Tensor) Dims() []int { return t.dims }

// Size returns the number of elements.
func (t *Tensor) Size() int {
	n := 1
	for _, dim := range t.dims {
		n *= dim
	}
	return n
}

// Bytes returns the raw storage. Mutating it mutates the tensor.
func (t *Tensor) Bytes() []byte { return t.data }

// IsAligned reports whether the storage start address is a multiple of BufferAlignment,
// i.e. whether the tensor qualifies for the zero-copy input path.
func (t *Tensor) IsAligned() bool { return memalign.IsAligned(t.data) }

// Float32s returns the storage viewed as []float32. It panics if the dtype is not Float32.
func (t *Tensor) Float32s() []float32 {
	if t.dtype != dtypes.Float32 {
		panic(errors.Errorf("tensor holds %s, accessed as Float32", t.dtype))
	}
	return view[float32](t)
}

// MakeVariable returns a differentiable view of the tensor, sharing its storage.
// It is the host autograd's variable wrapper for values produced by the backend.
func MakeVariable(t *Tensor) *Tensor {
	v := *t
	v.requiresGrad = true
	return &v
}

// RequiresGrad reports whether the tensor is a differentiable variable.
func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

// view reinterprets the tensor storage as a flat slice of T.
func view[T any](t *Tensor) []T {
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(t.data))), t.Size())
}
