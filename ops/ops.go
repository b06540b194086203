// Package ops maps host graph nodes to backend expressions.
//
// The compiler consults a Mapper for every node it translates; a node kind without a
// mapping is precisely what makes a subgraph untranslatable and triggers the compiler's
// strict/fallback policy. The default Registry covers the same operator set the host
// interpreter implements, so any graph the default table translates can also be checked
// against direct interpretation.
package ops

import (
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
)

// Mapper resolves one host node, given its already-translated inputs, to a backend
// expression. Nodes with several outputs must resolve to a tuple-valued expression.
type Mapper interface {
	MapNode(node *graph.Node, inputs []relay.Expr) (relay.Expr, error)
}

// ErrNoLowering is the cause reported for node kinds without a registered lowering.
var ErrNoLowering = errors.New("no backend lowering registered for operator")

// BuildFn lowers one node kind.
type BuildFn func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error)

// Registry is a Mapper backed by a per-kind table.
type Registry struct {
	table map[string]BuildFn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[string]BuildFn)}
}

// Register installs the lowering for a node kind, replacing any previous one.
func (r *Registry) Register(kind string, fn BuildFn) {
	r.table[kind] = fn
}

// MapNode implements Mapper.
func (r *Registry) MapNode(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
	fn, found := r.table[node.Kind()]
	if !found {
		return nil, errors.Wrapf(ErrNoLowering, "%s", node.Kind())
	}
	return fn(node, inputs)
}

// call lowers a node to a plain backend operator call.
func call(op string) BuildFn {
	return func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
		return &relay.Call{Op: op, Args: inputs}, nil
	}
}

var defaultRegistry = NewRegistry()

func init() {
	for kind, op := range map[string]string{
		"aten::add":      "add",
		"aten::sub":      "subtract",
		"aten::mul":      "multiply",
		"aten::div":      "divide",
		"aten::relu":     "nn.relu",
		"aten::tanh":     "tanh",
		"aten::sigmoid":  "sigmoid",
		"aten::mm":       "nn.matmul",
		"aten::var_mean": "var_mean",
	} {
		defaultRegistry.Register(kind, call(op))
	}
}

// Default returns the process-wide registry with the standard operator table.
// Callers may Register additional kinds on it; the compiler also accepts any custom
// Mapper, which is what tests substitute.
func Default() *Registry { return defaultRegistry }
