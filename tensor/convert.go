package tensor

import (
	"github.com/gomlx/gorelay/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// ToFloat32 returns the tensor converted to a dense, non-quantized float32 tensor, the
// representation the backend runtime is fed with.
//
// If the tensor already holds float32 it is returned unchanged -- in particular its
// storage alignment is preserved. Conversions allocate fresh aligned storage.
func (t *Tensor) ToFloat32() (*Tensor, error) {
	if t.dtype == dtypes.Float32 {
		return t, nil
	}
	out := New(dtypes.Float32, t.dims...)
	dst := out.Float32s()
	switch t.dtype.Unquantized() {
	case dtypes.Float64:
		for i, v := range view[float64](t) {
			dst[i] = float32(v)
		}
	case dtypes.Float16:
		for i, v := range view[float16.Float16](t) {
			dst[i] = v.Float32()
		}
	case dtypes.Int8:
		convertInts(view[int8](t), dst)
	case dtypes.Int32:
		convertInts(view[int32](t), dst)
	case dtypes.Int64:
		convertInts(view[int64](t), dst)
	case dtypes.Uint8:
		convertInts(view[uint8](t), dst)
	case dtypes.Bool:
		for i, v := range view[bool](t) {
			if v {
				dst[i] = 1
			}
		}
	default:
		return nil, errors.Errorf("cannot convert tensor of dtype %s to float32", t.dtype)
	}
	return out, nil
}

func convertInts[T int8 | int32 | int64 | uint8](src []T, dst []float32) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}
