// Package graphrt is a pure-Go reference backend for gorelay.
//
// It compiles a relay.Function into a flat node program -- serialized as the graph JSON
// the runtime module is created from, with constants carried in the opaque module
// artifact -- and executes it over float32 NDArrays on the CPU. It implements the full
// backend contract including the zero-copy input path, and exists to make the compiler
// executable and testable without the external compiler's native runtime.
//
// Import it for its registration side effect:
//
//	import _ "github.com/gomlx/gorelay/backend/graphrt"
package graphrt

import (
	"github.com/gomlx/gorelay/backend"
	"github.com/pkg/errors"
)

// Name is the name the backend registers itself under.
const Name = "graphrt"

type graphrtBackend struct{}

func init() {
	backend.Register(Name, func(config string) (backend.Backend, error) {
		if config != "" {
			return nil, errors.Errorf("backend %q takes no configuration, got %q", Name, config)
		}
		return graphrtBackend{}, nil
	})
}

// New returns the graphrt backend directly, for callers injecting it without the registry.
func New() backend.Backend { return graphrtBackend{} }

func (graphrtBackend) Name() string { return Name }

func (graphrtBackend) NewBuildModule() backend.BuildModule { return &buildModule{} }

func (graphrtBackend) NewRuntimeModule(graphJSON string, module backend.Module, device backend.DeviceKind, deviceID int) (backend.RuntimeModule, error) {
	return newRuntimeModule(graphJSON, module, device, deviceID)
}
