package relay

import (
	"unsafe"

	"github.com/gomlx/gorelay/internal/memalign"
	"github.com/pkg/errors"
)

// NDArray is a dense host-resident buffer used for constants embedded in a Function and
// for the values flowing through the reference runtime.
//
// The backing storage is allocated on a 64-byte boundary so the backend can always take
// the zero-copy path on buffers it allocated itself.
type NDArray struct {
	dtype DType
	dims  []int
	data  []byte
}

// Empty creates a zero-initialized NDArray of the given shape. A nil or empty dims
// creates a scalar (one element, rank 0).
func Empty(dims []int, dtype DType) *NDArray {
	size := dtype.Size()
	for _, dim := range dims {
		size *= dim
	}
	return &NDArray{
		dtype: dtype,
		dims:  append([]int{}, dims...),
		data:  memalign.Bytes(size),
	}
}

// FromFloat32 creates a float32 NDArray of the given shape with a copy of the data.
func FromFloat32(values []float32, dims ...int) (*NDArray, error) {
	a := Empty(dims, Float(32))
	if len(values) != a.Len() {
		return nil, errors.Errorf("NDArray shape %v requires %d values, got %d", dims, a.Len(), len(values))
	}
	copy(a.Float32s(), values)
	return a, nil
}

// Wrap creates an NDArray that aliases the given storage without copying. The caller
// keeps ownership of the buffer, which must remain valid and unmoved while the NDArray
// is in use. Alignment follows the given slice.
func Wrap(dtype DType, data []byte, dims ...int) (*NDArray, error) {
	size := dtype.Size()
	for _, dim := range dims {
		size *= dim
	}
	if len(data) != size {
		return nil, errors.Errorf("NDArray of dtype %s and shape %v requires %d bytes, got %d", dtype, dims, size, len(data))
	}
	return &NDArray{dtype: dtype, dims: append([]int{}, dims...), data: data}, nil
}

// DType returns the element type.
func (a *NDArray) DType() DType { return a.dtype }

// Dims returns the shape. The returned slice must not be modified.
func (a *NDArray) Dims() []int { return a.dims }

// Len returns the number of elements.
func (a *NDArray) Len() int {
	n := 1
	for _, dim := range a.dims {
		n *= dim
	}
	return n
}

// Bytes returns the raw backing storage.
func (a *NDArray) Bytes() []byte { return a.data }

// Float32s returns the data viewed as []float32. It panics if the dtype is not float32.
func (a *NDArray) Float32s() []float32 {
	a.checkDType(Float(32))
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(a.data))), a.Len())
}

// Int32s returns the data viewed as []int32. It panics if the dtype is not int32.
func (a *NDArray) Int32s() []int32 {
	a.checkDType(Int(32))
	return unsafe.Slice((*int32)(unsafe.Pointer(unsafe.SliceData(a.data))), a.Len())
}

// Uint64s returns the data viewed as []uint64. It panics if the dtype is not uint64.
func (a *NDArray) Uint64s() []uint64 {
	a.checkDType(UInt(64))
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(a.data))), a.Len())
}

// Bools returns the data viewed as []bool. It panics if the dtype is not bool.
func (a *NDArray) Bools() []bool {
	a.checkDType(BoolType())
	return unsafe.Slice((*bool)(unsafe.Pointer(unsafe.SliceData(a.data))), a.Len())
}

func (a *NDArray) checkDType(want DType) {
	if a.dtype != want {
		panic(errors.Errorf("NDArray holds %s, accessed as %s", a.dtype, want))
	}
}
