package compiler

import "github.com/pkg/errors"

// Causes of translation failures. All of them are recoverable: the Executor catches
// them at the Run boundary and applies the strict/fallback policy. Use errors.Is to
// classify a failure.
//
// Malformed-subgraph and environment faults (incomplete declared input types,
// output-count mismatches after build, outputs left untranslated) are not errors but
// panics, raised with exceptions.Panicf: they indicate a programming error and are not
// subject to the fallback policy.
var (
	// ErrUnsupportedType reports a host element type with no backend mapping.
	ErrUnsupportedType = errors.New("unsupported host element type")

	// ErrUnsupportedConstant reports a bound constant kind that cannot be encoded as a
	// backend expression.
	ErrUnsupportedConstant = errors.New("unsupported constant kind")

	// ErrNumericOverflow reports a constant whose value exceeds the range of the
	// narrowed backend type (float64 to float32, int64 to int32).
	ErrNumericOverflow = errors.New("numeric constant overflows narrowed backend type")

	// ErrFreeVariableMismatch reports a translated function referencing more free
	// variables than it has declared parameters.
	ErrFreeVariableMismatch = errors.New("free variables exceed declared function inputs")
)
