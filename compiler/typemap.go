package compiler

import (
	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
)

// scalarToRelayType is the fixed mapping from host element types to backend element
// types. Quantized variants map to their underlying plain integer widths. Anything
// absent here (notably Float16) makes a subgraph untranslatable.
var scalarToRelayType = map[dtypes.DType]relay.DType{
	dtypes.Float32: relay.Float(32),
	dtypes.Float64: relay.Float(64),
	dtypes.Int32:   relay.Int(32),
	dtypes.Int64:   relay.Int(64),
	dtypes.Bool:    relay.BoolType(),
	dtypes.Int8:    relay.Int(8),
	dtypes.Uint8:   relay.UInt(8),
	dtypes.QInt8:   relay.Int(8),
	dtypes.QUInt8:  relay.UInt(8),
	dtypes.QInt32:  relay.Int(32),
}

// ScalarTypeToRelayType converts a host element type to the backend element type.
// It fails with ErrUnsupportedType for types outside the fixed mapping; the failure
// propagates as a translation failure, subject to the strict/fallback policy.
func ScalarTypeToRelayType(dtype dtypes.DType) (relay.DType, error) {
	relayType, found := scalarToRelayType[dtype]
	if !found {
		return relay.DType{}, errors.Wrapf(ErrUnsupportedType, "could not handle the type %s when creating a backend tensor type", dtype)
	}
	return relayType, nil
}
