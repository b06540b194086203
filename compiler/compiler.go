// Package compiler bridges traced host subgraphs to an external tensor-compiler
// backend: it translates a captured subgraph to the backend's expression IR
// (package relay), compiles it through the backend's build pipeline, caches the
// compiled runtime module per input shape/type signature, and executes it with
// zero-copy tensor hand-off where alignment permits.
//
// A Compiler instance binds one subgraph to one device configuration. Calls are
// synchronous and single-threaded: an instance must not be used from several
// goroutines concurrently.
//
// When translation fails -- an operator without a backend lowering, an unsupported
// element type or constant, a narrowing overflow -- the call either aborts (strict
// policy) or falls back to direct interpretation of the subgraph, transparently to
// the caller (non-strict, the default, with a diagnostic warning logged).
package compiler

import (
	"container/list"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gorelay/backend"
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/graph/interp"
	"github.com/gomlx/gorelay/ops"
	"github.com/gomlx/gorelay/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Config is the immutable device and policy configuration of a Compiler.
// The zero value selects CPU, the default targets, non-strict policy and an
// unbounded cache.
type Config struct {
	// OptLevel is passed through to the backend build pipeline.
	OptLevel int

	// Strict makes translation failures abort the call instead of falling back to
	// the host interpreter.
	Strict bool

	// DeviceType selects the device kind: "gpu" for GPU, anything else (usually
	// "cpu") for CPU. The device id is always 0.
	DeviceType string

	// Target and TargetHost are the backend compilation targets for the device and
	// for the host. Both default to "llvm".
	Target     backend.Target
	TargetHost backend.Target

	// MaxCacheEntries bounds the number of compiled artifacts kept, evicting the
	// least recently used signature. Zero keeps every artifact for the lifetime of
	// the Compiler.
	MaxCacheEntries int

	// Backend overrides the compile/execute backend. Defaults to the first
	// registered backend (see package backend).
	Backend backend.Backend

	// Mapper overrides the node-to-operator mapping. Defaults to ops.Default().
	Mapper ops.Mapper

	// Interpreter overrides the fallback executor for the non-strict policy.
	// Defaults to interp.Run.
	Interpreter func(*graph.Graph, *graph.Stack) error
}

// Compiler compiles and runs one subgraph. Create it with New; one instance per
// subgraph-compilation site.
type Compiler struct {
	cfg      Config
	subgraph *graph.Graph
	device   backend.DeviceKind
	deviceID int

	be     backend.Backend
	mapper ops.Mapper
	interp func(*graph.Graph, *graph.Stack) error

	// cache maps input signatures to compiled artifacts. lru tracks recency when
	// the cache is bounded; nil otherwise.
	cache map[Signature]*compiledEntry
	lru   *list.List
}

// compiledEntry is one cached compiled artifact: the host values the compiled
// function consumes as inputs -- in the order the runtime module expects them --
// and the runtime module exposing the set-input, zero-copy set-input, run and
// get-output entry points.
type compiledEntry struct {
	inputValues []*graph.Value
	mod         backend.RuntimeModule
	lruElem     *list.Element
}

// New creates a Compiler for the given subgraph. The subgraph is captured by
// reference and must not be mutated afterward.
func New(subgraph *graph.Graph, cfg Config) (*Compiler, error) {
	if subgraph == nil {
		return nil, errors.New("gorelay: nil subgraph")
	}
	if len(subgraph.Outputs()) == 0 {
		return nil, errors.New("gorelay: subgraph declares no outputs")
	}
	if cfg.Target == "" {
		cfg.Target = "llvm"
	}
	if cfg.TargetHost == "" {
		cfg.TargetHost = "llvm"
	}
	c := &Compiler{
		cfg:      cfg,
		subgraph: subgraph,
		device:   backend.DeviceKindFromString(cfg.DeviceType),
		be:       cfg.Backend,
		mapper:   cfg.Mapper,
		interp:   cfg.Interpreter,
		cache:    make(map[Signature]*compiledEntry),
	}
	if c.be == nil {
		var err error
		c.be, err = backend.New("")
		if err != nil {
			return nil, err
		}
	}
	if c.mapper == nil {
		c.mapper = ops.Default()
	}
	if c.interp == nil {
		c.interp = interp.Run
	}
	if cfg.MaxCacheEntries > 0 {
		c.lru = list.New()
	}
	return c, nil
}

// NumCached returns the number of compiled artifacts currently cached.
func (c *Compiler) NumCached() int { return len(c.cache) }

// Run executes the subgraph over the arguments on top of the stack: the declared
// number of inputs is consumed and the subgraph's outputs are pushed in declared
// order, wrapped as differentiable host values.
//
// The first call with a given input shape/type signature translates and builds the
// subgraph; later calls with the same signature reuse the cached artifact.
func (c *Compiler) Run(stack *graph.Stack) error {
	numInputs := len(c.subgraph.Inputs())
	if stack.Len() < numInputs {
		return errors.Errorf("gorelay: subgraph declares %d inputs but the stack holds %d values", numInputs, stack.Len())
	}
	args := stack.Last(numInputs)
	valueToIValue := make(map[*graph.Value]graph.IValue, numInputs)
	for i, value := range c.subgraph.Inputs() {
		valueToIValue[value] = args[i]
	}

	sig := signatureOf(args)
	entry, found := c.cache[sig]
	if found && c.lru != nil {
		c.lru.MoveToFront(entry.lruElem)
	}
	if !found {
		var err error
		entry, err = c.compile(sig, valueToIValue, stack)
		if err != nil || entry == nil {
			// entry == nil means the fallback path already ran the subgraph.
			return err
		}
	}

	// Feed inputs in the order the compiled function consumes them, which may differ
	// from the declared input order because of promoted constant tensors.
	for i, value := range entry.inputValues {
		iv, bound := valueToIValue[value]
		if !bound {
			var ok bool
			iv, ok = value.IValue()
			if !ok {
				exceptions.Panicf("gorelay: compiled input %%%d is neither a runtime argument nor a bound constant", value.ID())
			}
			valueToIValue[value] = iv
		}
		t, err := iv.Tensor().ToFloat32()
		if err != nil {
			return errors.WithMessagef(err, "gorelay: converting input %d", i)
		}
		if t.IsAligned() {
			err = entry.mod.SetInputZeroCopy(i, t)
		} else {
			err = entry.mod.SetInput(i, t)
		}
		if err != nil {
			return errors.WithMessagef(err, "gorelay: feeding input %d", i)
		}
	}

	if err := entry.mod.Run(); err != nil {
		return errors.WithMessagef(err, "gorelay: running compiled subgraph")
	}

	// Clean the inputs off the stack and push the outputs, in declared order.
	stack.Drop(numInputs)
	for i := range c.subgraph.Outputs() {
		out, err := entry.mod.GetOutput(i)
		if err != nil {
			return errors.WithMessagef(err, "gorelay: reading output %d", i)
		}
		stack.Push(graph.FromTensor(tensor.MakeVariable(out)))
	}
	return nil
}

// compile translates and builds the subgraph for one signature, caching the result.
// Under non-strict policy a translation failure runs the fallback interpreter on the
// untouched stack and returns (nil, nil); no cache entry is created on that path.
func (c *Compiler) compile(sig Signature, valueToIValue map[*graph.Value]graph.IValue, stack *graph.Stack) (*compiledEntry, error) {
	// Re-infer the declared input types from the concrete arguments of this call.
	for value, iv := range valueToIValue {
		value.InferTypeFrom(iv.Tensor())
	}

	fn, inputValues, err := convertGraphToRelay(c.subgraph, c.mapper)
	if err != nil {
		if c.cfg.Strict {
			return nil, errors.WithMessagef(err, "gorelay: failed to translate subgraph to the backend IR")
		}
		klog.Warningf("gorelay: failed to translate subgraph to the backend IR, falling back to the host interpreter: %v", err)
		return nil, c.interp(c.subgraph, stack)
	}

	klog.V(1).Infof("gorelay: building subgraph for signature %q on %q", sig, c.cfg.Target)
	bm := c.be.NewBuildModule()
	targets := map[backend.DeviceKind]backend.Target{c.device: c.cfg.Target}
	if err := bm.Build(fn, targets, c.cfg.TargetHost, c.cfg.OptLevel); err != nil {
		return nil, errors.WithMessagef(err, "gorelay: backend build failed")
	}
	graphJSON, err := bm.GraphJSON()
	if err != nil {
		return nil, errors.WithMessagef(err, "gorelay: retrieving graph description")
	}
	module, err := bm.Module()
	if err != nil {
		return nil, errors.WithMessagef(err, "gorelay: retrieving built module")
	}
	mod, err := c.be.NewRuntimeModule(graphJSON, module, c.device, c.deviceID)
	if err != nil {
		return nil, errors.WithMessagef(err, "gorelay: creating runtime module")
	}
	if mod.NumOutputs() != len(c.subgraph.Outputs()) {
		exceptions.Panicf("gorelay: compiled subgraph has %d outputs, the subgraph declares %d", mod.NumOutputs(), len(c.subgraph.Outputs()))
	}

	entry := &compiledEntry{inputValues: inputValues, mod: mod}
	c.cache[sig] = entry
	if c.lru != nil {
		entry.lruElem = c.lru.PushFront(sig)
		if c.lru.Len() > c.cfg.MaxCacheEntries {
			oldest := c.lru.Back()
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(Signature))
		}
	}
	return entry, nil
}
