package relay

// Expr is a node of the backend expression DAG.
//
// The concrete types are *Var, *Constant, *Call, *Tuple and *TupleGetItem. Expressions
// are compared by identity: two structurally equal nodes are still distinct values.
type Expr interface {
	isRelayExpr()
}

// TensorType is the backend type of a tensor-valued expression: a shape with 32-bit
// dimensions and an element type.
type TensorType struct {
	Dims  []int32
	DType DType
}

// Var is a typed input variable, a parameter of the enclosing Function.
type Var struct {
	// Name is unique within the Function.
	Name string
	Type TensorType
}

// Constant wraps a dense NDArray value embedded in the program.
type Constant struct {
	Value *NDArray
}

// Call applies a backend operator, by name, to already-translated arguments.
// Operators with several results produce a tuple-valued Call; consumers project the
// results out with TupleGetItem.
type Call struct {
	Op   string
	Args []Expr
}

// Tuple groups expressions into one tuple-valued expression.
type Tuple struct {
	Fields []Expr
}

// TupleGetItem projects field Index out of a tuple-valued expression.
type TupleGetItem struct {
	Tuple Expr
	Index int
}

func (*Var) isRelayExpr()          {}
func (*Constant) isRelayExpr()     {}
func (*Call) isRelayExpr()         {}
func (*Tuple) isRelayExpr()        {}
func (*TupleGetItem) isRelayExpr() {}

// Function is a complete backend function: an ordered parameter list and a body
// expression referencing the parameters. gorelay always builds a tuple-typed body, one
// field per subgraph output, and declares no return-type constraint and no type
// parameters.
type Function struct {
	Params []*Var
	Body   Expr
}

// FreeVars returns the variables referenced by expr that are not bound anywhere, in
// first-occurrence order. On a Function body, every free var must be one of the
// function's parameters for the function to be well-formed.
func FreeVars(expr Expr) []*Var {
	var free []*Var
	seen := make(map[*Var]bool)
	var walk func(e Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case *Var:
			if !seen[e] {
				seen[e] = true
				free = append(free, e)
			}
		case *Constant:
		case *Call:
			for _, arg := range e.Args {
				walk(arg)
			}
		case *Tuple:
			for _, field := range e.Fields {
				walk(field)
			}
		case *TupleGetItem:
			walk(e.Tuple)
		}
	}
	walk(expr)
	return free
}
