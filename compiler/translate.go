package compiler

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/ops"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
)

// convertGraphToRelay translates a host subgraph into a backend function, walking the
// def-use graph in use-order from the declared inputs.
//
// It returns the function and the ordered list of host values it consumes as inputs.
// The consumed list can exceed the subgraph's declared inputs: embedded constant
// tensors are promoted to function parameters rather than inlined, in first-discovery
// order (an implementation-defined ordering, deterministic for a fixed subgraph).
func convertGraphToRelay(subgraph *graph.Graph, mapper ops.Mapper) (*relay.Function, []*graph.Value, error) {
	valueMap := make(map[*graph.Value]relay.Expr)
	var inputVars []*relay.Var
	var inputValues []*graph.Value

	// resolveConstant translates a bound constant: tensors are promoted to function
	// inputs, everything else becomes a constant expression.
	resolveConstant := func(value *graph.Value, iv graph.IValue) (relay.Expr, error) {
		if iv.IsTensor() {
			v, err := convertValueToRelay(value)
			if err != nil {
				return nil, err
			}
			inputVars = append(inputVars, v)
			inputValues = append(inputValues, value)
			return v, nil
		}
		return convertIValueToRelay(iv)
	}

	frontier := make([]*graph.Value, 0, len(subgraph.Inputs()))
	for _, input := range subgraph.Inputs() {
		if !input.IsCompleteTensor() {
			exceptions.Panicf("gorelay: subgraph input %%%d lacks a complete tensor type", input.ID())
		}
		v, err := convertValueToRelay(input)
		if err != nil {
			return nil, nil, err
		}
		inputVars = append(inputVars, v)
		inputValues = append(inputValues, input)
		valueMap[input] = v
		frontier = append(frontier, input)
	}

	// Propagate over uses breadth-first. A consumer whose inputs are not all available
	// yet is skipped for this round; its missing inputs may arrive with a later
	// frontier (or never, which is tolerated).
	for len(frontier) > 0 {
		var newFrontier []*graph.Value
		for _, value := range frontier {
			for _, use := range value.Uses() {
				user := use.User
				if len(user.Outputs()) == 0 {
					// Pure side-effect/terminator nodes produce nothing to translate.
					continue
				}
				if _, done := valueMap[user.Outputs()[0]]; done {
					continue
				}
				relayInputs := make([]relay.Expr, 0, len(user.Inputs()))
				skipUser := false
				for _, input := range user.Inputs() {
					expr, found := valueMap[input]
					if !found {
						// We may be dealing with a constant, handle that here.
						iv, bound := input.IValue()
						if !bound {
							skipUser = true
							break
						}
						var err error
						expr, err = resolveConstant(input, iv)
						if err != nil {
							return nil, nil, err
						}
						valueMap[input] = expr
					}
					relayInputs = append(relayInputs, expr)
				}
				if skipUser {
					continue
				}
				// Multi-output nodes translate to one tuple-valued call, projected
				// per output in order.
				mapped, err := mapper.MapNode(user, relayInputs)
				if err != nil {
					return nil, nil, err
				}
				if len(user.Outputs()) == 1 {
					valueMap[user.Output()] = mapped
					newFrontier = append(newFrontier, user.Output())
				} else {
					for index, output := range user.Outputs() {
						valueMap[output] = &relay.TupleGetItem{Tuple: mapped, Index: index}
						newFrontier = append(newFrontier, output)
					}
				}
			}
		}
		frontier = newFrontier
	}

	fields := make([]relay.Expr, 0, len(subgraph.Outputs()))
	for _, output := range subgraph.Outputs() {
		expr, found := valueMap[output]
		if !found {
			// Constant-valued outputs have no consumers, so the walk never reaches
			// them; resolve them here.
			iv, bound := output.IValue()
			if !bound {
				exceptions.Panicf("gorelay: subgraph output %%%d left untranslated", output.ID())
			}
			var err error
			expr, err = resolveConstant(output, iv)
			if err != nil {
				return nil, nil, err
			}
			valueMap[output] = expr
		}
		fields = append(fields, expr)
	}
	body := &relay.Tuple{Fields: fields}

	if freeVars := relay.FreeVars(body); len(freeVars) > len(inputVars) {
		return nil, nil, errors.Wrapf(ErrFreeVariableMismatch, "determined %d free vars but only %d inputs", len(freeVars), len(inputVars))
	}

	return &relay.Function{Params: inputVars, Body: body}, inputValues, nil
}
