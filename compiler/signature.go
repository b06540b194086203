package compiler

import (
	"fmt"
	"strings"

	"github.com/gomlx/gorelay/graph"
)

// Signature is the structural cache key derived from a call's runtime arguments: two
// calls with identical input shape and element-type layout yield equal Signatures
// regardless of the concrete data.
type Signature string

// signatureOf computes the Signature for the given runtime arguments, bottom-most
// stack value first.
func signatureOf(args []graph.IValue) Signature {
	var sb strings.Builder
	for i, iv := range args {
		if i > 0 {
			sb.WriteByte(';')
		}
		if !iv.IsTensor() {
			sb.WriteString(iv.Kind().String())
			continue
		}
		t := iv.Tensor()
		sb.WriteString(t.DType().String())
		sb.WriteByte('[')
		for j, dim := range t.Dims() {
			if j > 0 {
				sb.WriteByte('x')
			}
			fmt.Fprintf(&sb, "%d", dim)
		}
		sb.WriteByte(']')
	}
	return Signature(sb.String())
}
