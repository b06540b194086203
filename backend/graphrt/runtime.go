package graphrt

import (
	"encoding/json"

	"github.com/gomlx/gorelay/backend"
	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/relay"
	"github.com/gomlx/gorelay/tensor"
	"github.com/pkg/errors"
)

// runtimeModule executes one built program on the CPU. Not safe for concurrent use.
type runtimeModule struct {
	prog   program
	consts []*relay.NDArray

	// inputs are the bound input buffers, one per "input" node, owned (copied) or
	// borrowed (zero-copy) depending on which set path bound them.
	inputs []*relay.NDArray

	// outputs of the last Run, parallel to prog.Outputs.
	outputs []*relay.NDArray
}

func newRuntimeModule(graphJSON string, module backend.Module, device backend.DeviceKind, deviceID int) (backend.RuntimeModule, error) {
	if device != backend.CPU {
		return nil, errors.Errorf("graphrt: runs on CPU only, got device kind %d", device)
	}
	if deviceID != 0 {
		return nil, errors.Errorf("graphrt: single-device backend, got device id %d", deviceID)
	}
	artifact, ok := module.(*moduleArtifact)
	if !ok {
		return nil, errors.Errorf("graphrt: module artifact of type %T was not built by this backend", module)
	}
	m := &runtimeModule{consts: artifact.consts}
	if err := json.Unmarshal([]byte(graphJSON), &m.prog); err != nil {
		return nil, errors.Wrapf(err, "graphrt: parsing graph JSON")
	}
	for _, node := range m.prog.Nodes {
		if node.Op == "const" && node.Const >= len(m.consts) {
			return nil, errors.Errorf("graphrt: graph references constant %d, module holds %d", node.Const, len(m.consts))
		}
	}
	m.inputs = make([]*relay.NDArray, m.prog.NumInputs)
	return m, nil
}

func (m *runtimeModule) checkInput(index int, t *tensor.Tensor) (dims []int, err error) {
	if index < 0 || index >= m.prog.NumInputs {
		return nil, errors.Errorf("graphrt: input index %d out of range, program has %d inputs", index, m.prog.NumInputs)
	}
	if t.DType() != dtypes.Float32 {
		return nil, errors.Errorf("graphrt: inputs must be dense float32, got %s", t.DType())
	}
	node := m.prog.Nodes[index]
	if len(t.Dims()) != len(node.Dims) {
		return nil, errors.Errorf("graphrt: input %d expects shape %v, got %v", index, node.Dims, t.Dims())
	}
	for i, dim := range node.Dims {
		if int(dim) != t.Dims()[i] {
			return nil, errors.Errorf("graphrt: input %d expects shape %v, got %v", index, node.Dims, t.Dims())
		}
	}
	return t.Dims(), nil
}

// SetInput copies the tensor into a module-owned buffer.
func (m *runtimeModule) SetInput(index int, t *tensor.Tensor) error {
	dims, err := m.checkInput(index, t)
	if err != nil {
		return err
	}
	owned := relay.Empty(dims, relay.Float(32))
	copy(owned.Float32s(), t.Float32s())
	m.inputs[index] = owned
	return nil
}

// SetInputZeroCopy borrows the tensor's buffer. The buffer must be 64-byte aligned and
// must remain valid and unmoved until Run returns.
func (m *runtimeModule) SetInputZeroCopy(index int, t *tensor.Tensor) error {
	dims, err := m.checkInput(index, t)
	if err != nil {
		return err
	}
	if !t.IsAligned() {
		return errors.Errorf("graphrt: zero-copy input %d requires a %d-byte aligned buffer", index, tensor.BufferAlignment)
	}
	borrowed, err := relay.Wrap(relay.Float(32), t.Bytes(), dims...)
	if err != nil {
		return err
	}
	m.inputs[index] = borrowed
	return nil
}

// Run evaluates the node program over the bound inputs.
func (m *runtimeModule) Run() error {
	// values[i] holds the result of node i; calls may be tuple-valued.
	values := make([][]*relay.NDArray, len(m.prog.Nodes))
	inputIdx := 0
	for i, node := range m.prog.Nodes {
		switch node.Op {
		case "input":
			if m.inputs[inputIdx] == nil {
				return errors.Errorf("graphrt: input %d (%s) was never set", inputIdx, node.Name)
			}
			values[i] = []*relay.NDArray{m.inputs[inputIdx]}
			inputIdx++
		case "const":
			values[i] = []*relay.NDArray{m.consts[node.Const]}
		case "call":
			args := make([]*relay.NDArray, len(node.Inputs))
			for j, id := range node.Inputs {
				arg := values[id]
				if len(arg) != 1 {
					return errors.Errorf("graphrt: %s argument %d is tuple-valued, project it first", node.Name, j)
				}
				args[j] = arg[0]
			}
			kernel := kernelTable[node.Name]
			if kernel == nil {
				return errors.Errorf("graphrt: operator %q is not implemented", node.Name)
			}
			results, err := kernel(args)
			if err != nil {
				return errors.WithMessagef(err, "graphrt: evaluating %s", node.Name)
			}
			values[i] = results
		case "tuple":
			var fields []*relay.NDArray
			for _, id := range node.Inputs {
				fields = append(fields, values[id]...)
			}
			values[i] = fields
		case "tuple_get":
			tuple := values[node.Inputs[0]]
			if node.Index < 0 || node.Index >= len(tuple) {
				return errors.Errorf("graphrt: tuple projection %d out of range, tuple has %d fields", node.Index, len(tuple))
			}
			values[i] = []*relay.NDArray{tuple[node.Index]}
		default:
			return errors.Errorf("graphrt: unknown node op %q", node.Op)
		}
	}

	m.outputs = make([]*relay.NDArray, len(m.prog.Outputs))
	for i, id := range m.prog.Outputs {
		out := values[id]
		if len(out) != 1 {
			return errors.Errorf("graphrt: output %d is tuple-valued", i)
		}
		m.outputs[i] = out[0]
	}
	return nil
}

// GetOutput returns the output buffer at the given position as a host tensor aliasing
// the buffer. Each Run allocates fresh output buffers, so the alias stays valid across
// subsequent runs.
func (m *runtimeModule) GetOutput(index int) (*tensor.Tensor, error) {
	if m.outputs == nil {
		return nil, errors.New("graphrt: GetOutput called before Run")
	}
	if index < 0 || index >= len(m.outputs) {
		return nil, errors.Errorf("graphrt: output index %d out of range, program has %d outputs", index, len(m.outputs))
	}
	out := m.outputs[index]
	return tensor.FromBytes(dtypes.Float32, out.Bytes(), out.Dims()...)
}

func (m *runtimeModule) NumOutputs() int { return len(m.prog.Outputs) }
