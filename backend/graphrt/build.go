package graphrt

import (
	"encoding/json"

	"github.com/gomlx/gorelay/backend"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
)

// The graph JSON wire format: a flat node program in dependency order. Inputs come
// first, in parameter order. Constants are not inlined in the JSON; they live in the
// module artifact and nodes reference them by pool index.

type progNode struct {
	Op     string  `json:"op"` // "input", "const", "call", "tuple", "tuple_get"
	Name   string  `json:"name,omitempty"`
	Inputs []int   `json:"inputs,omitempty"`
	Index  int     `json:"index,omitempty"`
	Const  int     `json:"const,omitempty"`
	Dims   []int32 `json:"dims,omitempty"`
	DType  string  `json:"dtype,omitempty"`
}

type program struct {
	Nodes     []progNode `json:"nodes"`
	Outputs   []int      `json:"outputs"`
	NumInputs int        `json:"num_inputs"`
}

// moduleArtifact is the opaque backend.Module graphrt builds: the constant pool
// referenced by the program's "const" nodes.
type moduleArtifact struct {
	consts []*relay.NDArray
}

// buildModule lowers one relay.Function. One instance serves one build.
type buildModule struct {
	prog   *program
	consts []*relay.NDArray
}

func (m *buildModule) Build(fn *relay.Function, targets map[backend.DeviceKind]backend.Target, targetHost backend.Target, optLevel int) error {
	if m.prog != nil {
		return errors.New("graphrt: build module already used")
	}
	if len(targets) == 0 {
		return errors.New("graphrt: no targets given")
	}
	if _, found := targets[backend.CPU]; !found {
		return errors.Errorf("graphrt: only CPU targets are supported, got %v", targets)
	}
	_ = targetHost // The host target matters only to backends that cross-compile.
	_ = optLevel   // graphrt does not optimize.

	l := &lowerer{ids: make(map[relay.Expr]int)}
	for _, param := range fn.Params {
		l.ids[param] = len(l.prog.Nodes)
		l.prog.Nodes = append(l.prog.Nodes, progNode{
			Op:    "input",
			Name:  param.Name,
			Dims:  param.Type.Dims,
			DType: param.Type.DType.String(),
		})
	}
	l.prog.NumInputs = len(fn.Params)

	// The function body is a tuple of the program outputs; its fields become the
	// flattened outputs the runtime exposes by position.
	if tuple, ok := fn.Body.(*relay.Tuple); ok {
		for _, field := range tuple.Fields {
			id, err := l.lower(field)
			if err != nil {
				return err
			}
			l.prog.Outputs = append(l.prog.Outputs, id)
		}
	} else {
		id, err := l.lower(fn.Body)
		if err != nil {
			return err
		}
		l.prog.Outputs = []int{id}
	}

	m.prog = &l.prog
	m.consts = l.consts
	return nil
}

func (m *buildModule) GraphJSON() (string, error) {
	if m.prog == nil {
		return "", errors.New("graphrt: GraphJSON called before Build")
	}
	data, err := json.Marshal(m.prog)
	if err != nil {
		return "", errors.Wrapf(err, "graphrt: serializing graph")
	}
	return string(data), nil
}

func (m *buildModule) Module() (backend.Module, error) {
	if m.prog == nil {
		return nil, errors.New("graphrt: Module called before Build")
	}
	return &moduleArtifact{consts: m.consts}, nil
}

type lowerer struct {
	prog   program
	ids    map[relay.Expr]int
	consts []*relay.NDArray
}

// lower emits the node program for expr and returns its node id. Shared sub-expressions
// are emitted once.
func (l *lowerer) lower(expr relay.Expr) (int, error) {
	if id, found := l.ids[expr]; found {
		return id, nil
	}
	var node progNode
	switch expr := expr.(type) {
	case *relay.Var:
		// Params were pre-registered; anything else is unbound.
		return 0, errors.Errorf("graphrt: free variable %%%s in function body", expr.Name)
	case *relay.Constant:
		node = progNode{Op: "const", Const: len(l.consts)}
		l.consts = append(l.consts, expr.Value)
	case *relay.Call:
		if _, found := kernelTable[expr.Op]; !found {
			return 0, errors.Errorf("graphrt: operator %q is not implemented", expr.Op)
		}
		node = progNode{Op: "call", Name: expr.Op}
		for _, arg := range expr.Args {
			id, err := l.lower(arg)
			if err != nil {
				return 0, err
			}
			node.Inputs = append(node.Inputs, id)
		}
	case *relay.Tuple:
		node = progNode{Op: "tuple"}
		for _, field := range expr.Fields {
			id, err := l.lower(field)
			if err != nil {
				return 0, err
			}
			node.Inputs = append(node.Inputs, id)
		}
	case *relay.TupleGetItem:
		id, err := l.lower(expr.Tuple)
		if err != nil {
			return 0, err
		}
		node = progNode{Op: "tuple_get", Inputs: []int{id}, Index: expr.Index}
	default:
		return 0, errors.Errorf("graphrt: cannot lower expression of type %T", expr)
	}
	id := len(l.prog.Nodes)
	l.prog.Nodes = append(l.prog.Nodes, node)
	l.ids[expr] = id
	return id, nil
}
