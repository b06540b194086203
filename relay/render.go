package relay

import (
	"fmt"
	"io"
	"strings"
)

// This file renders Functions in a compact human-readable text form, used for
// diagnostics and tests. Calls are let-bound to numbered values (%0, %1, ...), in
// dependency order; variables, constants, tuples and projections render inline.

// String renders the function as text.
func (f *Function) String() string {
	var sb strings.Builder
	_ = f.Write(&sb)
	return sb.String()
}

// Write renders the function as text to the given writer.
func (f *Function) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	r := &renderer{names: make(map[Expr]string)}
	w("fn (")
	for i, param := range f.Params {
		if i > 0 {
			w(", ")
		}
		w("%%%s: %s", param.Name, param.Type.String())
		r.names[param] = "%" + param.Name
	}
	w(") {\n")
	body := r.render(f.Body)
	for _, line := range r.lines {
		w("  %s\n", line)
	}
	w("  %s\n}", body)
	return err
}

// String returns the textual form of the tensor type, e.g. "Tensor[(2, 3), float32]".
func (t TensorType) String() string {
	var sb strings.Builder
	sb.WriteString("Tensor[(")
	for i, dim := range t.Dims {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", dim)
	}
	fmt.Fprintf(&sb, "), %s]", t.DType)
	return sb.String()
}

type renderer struct {
	names map[Expr]string
	lines []string
}

// render returns the inline text of expr, let-binding calls as a side effect.
func (r *renderer) render(expr Expr) string {
	if name, found := r.names[expr]; found {
		return name
	}
	var name string
	switch expr := expr.(type) {
	case *Var:
		name = "%" + expr.Name
	case *Constant:
		name = renderConstant(expr.Value)
	case *Call:
		args := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = r.render(arg)
		}
		name = fmt.Sprintf("%%%d", len(r.lines))
		r.lines = append(r.lines, fmt.Sprintf("%s = %s(%s)", name, expr.Op, strings.Join(args, ", ")))
	case *Tuple:
		fields := make([]string, len(expr.Fields))
		for i, field := range expr.Fields {
			fields[i] = r.render(field)
		}
		name = "(" + strings.Join(fields, ", ") + ")"
	case *TupleGetItem:
		name = fmt.Sprintf("%s.%d", r.render(expr.Tuple), expr.Index)
	}
	r.names[expr] = name
	return name
}

func renderConstant(a *NDArray) string {
	if a.Len() == 1 && len(a.Dims()) == 0 {
		switch a.DType() {
		case Float(32):
			return fmt.Sprintf("const(%g: float32)", a.Float32s()[0])
		case Int(32):
			return fmt.Sprintf("const(%d: int32)", a.Int32s()[0])
		case UInt(64):
			return fmt.Sprintf("const(%#x: uint64)", a.Uint64s()[0])
		case BoolType():
			return fmt.Sprintf("const(%t: bool)", a.Bools()[0])
		}
	}
	return fmt.Sprintf("const(shape=%v: %s)", a.Dims(), a.DType())
}
