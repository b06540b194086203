// Package relay models the expression IR of the external tensor compiler that gorelay
// translates host subgraphs into.
//
// It is a deliberately small subset: typed input variables, dense constants, operator
// calls, tuples and tuple projections, assembled into a single Function. A Function is
// what the backend build pipeline (see package backend) consumes.
//
// Expressions form an immutable DAG: they are created during one translation pass and
// only referenced afterward.
package relay

// NoneSentinel is the reserved uint64 bit pattern standing in for the host's None value.
//
// The backend type system has no optional/unit type, so None is encoded as a
// single-element uint64 constant holding this value. It is a documented hack: a
// legitimate uint64 constant with this exact value would collide with it.
const NoneSentinel uint64 = 0x6e6f6e655f5f6e6f // "none__no"
