package ops

import (
	"testing"

	"github.com/gomlx/gorelay/graph"
	"github.com/gomlx/gorelay/relay"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	g := graph.New()
	x := g.AddInput("x")
	y := g.AddInput("y")
	add := g.AddNode("aten::add", 1, x, y)

	vx := &relay.Var{Name: "x_0"}
	vy := &relay.Var{Name: "y_1"}
	expr, err := Default().MapNode(add, []relay.Expr{vx, vy})
	require.NoError(t, err)
	call, ok := expr.(*relay.Call)
	require.True(t, ok)
	assert.Equal(t, "add", call.Op)
	assert.Equal(t, []relay.Expr{vx, vy}, call.Args)
}

func TestUnregisteredKind(t *testing.T) {
	g := graph.New()
	n := g.AddNode("aten::definitely_not_an_op", 1)
	_, err := Default().MapNode(n, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoLowering))
	assert.Contains(t, err.Error(), "aten::definitely_not_an_op")
}

func TestRegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register("test::twice", func(node *graph.Node, inputs []relay.Expr) (relay.Expr, error) {
		return &relay.Call{Op: "add", Args: []relay.Expr{inputs[0], inputs[0]}}, nil
	})
	g := graph.New()
	x := g.AddInput("x")
	n := g.AddNode("test::twice", 1, x)

	vx := &relay.Var{Name: "x_0"}
	expr, err := r.MapNode(n, []relay.Expr{vx})
	require.NoError(t, err)
	call := expr.(*relay.Call)
	assert.Equal(t, []relay.Expr{vx, vx}, call.Args)
}
