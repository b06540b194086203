// Package backend defines the interfaces gorelay uses to talk to the external tensor
// compiler: the build pipeline that compiles a relay.Function and the runtime module
// that executes the result.
//
// The real compiler lives behind these interfaces (in-process registry lookups in the
// original integration); modeling them as injected collaborators keeps them
// substitutable in tests. Package backend/graphrt provides a pure-Go reference
// implementation registered under "graphrt".
package backend

import (
	"strings"

	"github.com/gomlx/gorelay/relay"
	"github.com/gomlx/gorelay/tensor"
	"github.com/pkg/errors"
)

// DeviceKind identifies the device class a module is compiled for and runs on.
// The values follow the DLPack device codes.
type DeviceKind int

const (
	CPU DeviceKind = 1
	GPU DeviceKind = 2
)

// DeviceKindFromString maps the host-side device-type string to a DeviceKind:
// "gpu" selects GPU, anything else CPU.
func DeviceKindFromString(deviceType string) DeviceKind {
	if deviceType == "gpu" {
		return GPU
	}
	return CPU
}

// Target names a compilation target of the backend, e.g. "llvm" or "cuda".
type Target string

// Module is the opaque loadable artifact a build produces; only the backend that built
// it can interpret it.
type Module any

// BuildModule is one build-pipeline instance. Its methods are invoked in order: Build,
// then GraphJSON and Module to extract the artifacts a runtime module is created from.
type BuildModule interface {
	// Build compiles the function for the given device-kind to target mapping and host target.
	Build(fn *relay.Function, targets map[DeviceKind]Target, targetHost Target, optLevel int) error

	// GraphJSON returns the serialized program description of the built function.
	GraphJSON() (string, error)

	// Module returns the loadable module of the built function.
	Module() (Module, error)
}

// RuntimeModule is a compiled program instantiated on a device, ready to execute.
// It is not safe for concurrent use.
type RuntimeModule interface {
	// SetInput copies the tensor into the module's input slot.
	SetInput(index int, t *tensor.Tensor) error

	// SetInputZeroCopy hands the module the tensor's own buffer, which must be 64-byte
	// aligned and must remain valid and unmoved until Run returns.
	SetInputZeroCopy(index int, t *tensor.Tensor) error

	// Run executes the program over the inputs set since the last run.
	Run() error

	// GetOutput returns the output buffer at the given position as a host tensor.
	GetOutput(index int) (*tensor.Tensor, error)

	// NumOutputs returns the number of outputs of the compiled program.
	NumOutputs() int
}

// Backend creates build pipelines and runtime modules.
type Backend interface {
	// Name returns the short name the backend was registered under.
	Name() string

	// NewBuildModule creates a fresh build-pipeline instance.
	NewBuildModule() BuildModule

	// NewRuntimeModule instantiates a runtime module from the artifacts of a build.
	NewRuntimeModule(graphJSON string, module Module, device DeviceKind, deviceID int) (RuntimeModule, error)
}

// Constructor takes a backend-specific config string (possibly empty) and returns a Backend.
type Constructor func(config string) (Backend, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a backend constructor under the given name. Call it during package
// initialization; the first registered backend is the default.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// New creates a Backend from a configuration string formatted as
// "<backend_name>:<backend_config>". An empty name selects the first registered
// backend; the config part is passed through to its constructor.
func New(config string) (Backend, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.New(`no registered backends -- import one, e.g. _ "github.com/gomlx/gorelay/backend/graphrt"`)
	}
	name := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		name = config[:idx]
		backendConfig = config[idx+1:]
	} else if config != "" {
		name = config
		backendConfig = ""
	}
	constructor, found := registeredConstructors[name]
	if !found {
		return nil, errors.Errorf("backend %q not registered (configuration %q)", name, config)
	}
	return constructor(backendConfig)
}
