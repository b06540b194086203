// Package graph models the host framework's traced intermediate representation, the
// immutable subgraphs captured by the tracing JIT and handed to the compiler.
//
// A Graph has ordered input placeholders and ordered outputs; every internal Node has
// ordered inputs and one or more outputs. Values are identified by identity, not name,
// and carry def-use edges so translation can walk the graph in use-order. Constants are
// regular nodes of kind "prim::Constant" with a bound IValue.
package graph

import (
	"fmt"

	"github.com/gomlx/gorelay/dtypes"
	"github.com/gomlx/gorelay/tensor"
)

// ConstantKind is the node kind carrying a bound IValue and no inputs.
const ConstantKind = "prim::Constant"

// Graph is a captured subgraph. It is built once, via the Add* methods, and never
// mutated afterward (value type annotations excepted, see Value.InferTypeFrom).
type Graph struct {
	inputs  []*Value
	outputs []*Value
	nodes   []*Node

	nextID int
}

// Node is an operation in the graph.
type Node struct {
	kind    string
	inputs  []*Value
	outputs []*Value

	// ivalue is the bound constant for ConstantKind nodes.
	ivalue IValue
}

// Value is one value in the graph: an input placeholder or a node output. Values are
// compared by identity.
type Value struct {
	id   int
	name string
	node *Node // producing node; nil for graph inputs
	uses []Use

	// typ is the inferred tensor type; nil while unknown.
	typ *TensorType
}

// Use records one consumer of a value: the using node and the input slot it occupies.
type Use struct {
	User  *Node
	Index int
}

// TensorType is the statically inferred shape and element type of a tensor value.
type TensorType struct {
	Sizes []int64
	DType dtypes.DType
}

// New creates an empty graph.
func New() *Graph { return &Graph{} }

// AddInput appends an input placeholder with the given debug name.
func (g *Graph) AddInput(name string) *Value {
	v := g.newValue(name, nil)
	g.inputs = append(g.inputs, v)
	return v
}

// AddNode appends a node of the given kind consuming the given inputs, with numOutputs
// output values. Inputs must already belong to the graph.
func (g *Graph) AddNode(kind string, numOutputs int, inputs ...*Value) *Node {
	n := &Node{kind: kind, inputs: inputs}
	for i, input := range inputs {
		input.uses = append(input.uses, Use{User: n, Index: i})
	}
	for i := 0; i < numOutputs; i++ {
		n.outputs = append(n.outputs, g.newValue("", n))
	}
	g.nodes = append(g.nodes, n)
	return n
}

// AddConstant appends a constant node binding the given IValue, and returns its output value.
func (g *Graph) AddConstant(ivalue IValue) *Value {
	n := g.AddNode(ConstantKind, 1)
	n.ivalue = ivalue
	return n.Output()
}

// RegisterOutput appends a value to the graph's ordered outputs.
func (g *Graph) RegisterOutput(v *Value) {
	g.outputs = append(g.outputs, v)
}

// Inputs returns the ordered input placeholders.
func (g *Graph) Inputs() []*Value { return g.inputs }

// Outputs returns the ordered outputs.
func (g *Graph) Outputs() []*Value { return g.outputs }

// Nodes returns the nodes in insertion order, which is a topological order.
func (g *Graph) Nodes() []*Node { return g.nodes }

func (g *Graph) newValue(name string, producer *Node) *Value {
	v := &Value{id: g.nextID, name: name, node: producer}
	g.nextID++
	return v
}

// Kind returns the node's operator kind, e.g. "aten::add".
func (n *Node) Kind() string { return n.kind }

// Inputs returns the node's ordered inputs.
func (n *Node) Inputs() []*Value { return n.inputs }

// Outputs returns the node's ordered outputs.
func (n *Node) Outputs() []*Value { return n.outputs }

// Output returns the node's single output. It panics if the node has several.
func (n *Node) Output() *Value {
	if len(n.outputs) != 1 {
		panic(fmt.Sprintf("node %s has %d outputs, Output() requires exactly one", n.kind, len(n.outputs)))
	}
	return n.outputs[0]
}

// ID returns the value's unique id within its graph.
func (v *Value) ID() int { return v.id }

// DebugName returns the value's debug name, possibly empty.
func (v *Value) DebugName() string { return v.name }

// Node returns the producing node, or nil for graph inputs.
func (v *Value) Node() *Node { return v.node }

// Uses returns the value's consumers.
func (v *Value) Uses() []Use { return v.uses }

// IValue returns the constant bound to the value, if its producer is a constant node.
func (v *Value) IValue() (IValue, bool) {
	if v.node == nil || v.node.kind != ConstantKind {
		return IValue{}, false
	}
	return v.node.ivalue, true
}

// Type returns the value's inferred tensor type, or nil if unknown.
func (v *Value) Type() *TensorType { return v.typ }

// IsCompleteTensor reports whether the value carries a fully known shape and element type.
func (v *Value) IsCompleteTensor() bool {
	return v.typ != nil && v.typ.DType != dtypes.Invalid
}

// InferTypeFrom annotates the value with the shape and element type of the given
// concrete tensor. The tensor is treated as non-quantized and dense.
func (v *Value) InferTypeFrom(t *tensor.Tensor) {
	sizes := make([]int64, len(t.Dims()))
	for i, dim := range t.Dims() {
		sizes[i] = int64(dim)
	}
	v.typ = &TensorType{Sizes: sizes, DType: t.DType().Unquantized()}
}
