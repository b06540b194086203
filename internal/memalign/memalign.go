// Package memalign allocates byte buffers aligned for zero-copy hand-off to the backend runtime.
package memalign

import "unsafe"

// Alignment is the boundary (in bytes) the backend requires for zero-copy input buffers.
const Alignment = 64

// Bytes returns a zero-initialized slice of the given size whose first element sits on an
// Alignment boundary. It over-allocates and re-slices; the Go runtime only guarantees
// 8-byte alignment for large byte slices.
func Bytes(size int) []byte {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size+Alignment)
	offset := 0
	if rem := uintptr(unsafe.Pointer(unsafe.SliceData(buf))) % Alignment; rem != 0 {
		offset = Alignment - int(rem)
	}
	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether the slice's backing array starts on an Alignment boundary.
// An empty slice is considered aligned.
func IsAligned(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))%Alignment == 0
}
