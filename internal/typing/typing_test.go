package typing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/polcheck/internal/ir"
)

func cmp(l ir.Term, op ir.Comparator, r ir.Term) ir.Filter {
	return ir.Filter{Left: l, Op: op, Right: r}
}

func TestInferDirect(t *testing.T) {
	ts := ir.NewTimeLiteral(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	filters := []ir.Filter{
		cmp(ir.Var("age"), ir.OpGt, ir.IntLiteral(18)),
		cmp(ir.StringLiteral("Lyon"), ir.OpEq, ir.Var("city")),
		cmp(ir.Var("score"), ir.OpLe, ir.FloatLiteral(2.5)),
		cmp(ir.Var("t"), ir.OpLt, ts),
		cmp(ir.Var("page"), ir.OpNe, ir.IRILiteral("http://example.org/home")),
	}

	got := Infer(filters, nil)

	assert.Equal(t, map[ir.Var]ir.VarType{
		"age":   ir.TypeInt,
		"city":  ir.TypeString,
		"score": ir.TypeFloat,
		"t":     ir.TypeTimestamp,
		"page":  ir.TypeString,
	}, got)
}

func TestInferWidensIntToFloat(t *testing.T) {
	filters := []ir.Filter{
		cmp(ir.Var("x"), ir.OpGt, ir.IntLiteral(1)),
		cmp(ir.Var("x"), ir.OpLt, ir.FloatLiteral(9.5)),
	}

	assert.Equal(t, ir.TypeFloat, Infer(filters, nil)["x"])
}

func TestInferFirstTypeWinsOnConflict(t *testing.T) {
	filters := []ir.Filter{
		cmp(ir.Var("x"), ir.OpEq, ir.StringLiteral("a")),
		cmp(ir.Var("x"), ir.OpEq, ir.IntLiteral(1)),
	}

	assert.Equal(t, ir.TypeString, Infer(filters, nil)["x"])
}

func TestInferPropagatesThroughJoins(t *testing.T) {
	filters := []ir.Filter{cmp(ir.Var("PQ1y"), ir.OpGt, ir.IntLiteral(18))}
	joins := []ir.JoinPair{
		ir.NewJoinPair("PQ1y", "PQ1y#2"),
		ir.NewJoinPair("PQ1y#2", "UQ1b"),
		ir.NewJoinPair("lonely", "other"),
	}

	got := Infer(filters, joins)

	assert.Equal(t, ir.TypeInt, got["PQ1y"])
	assert.Equal(t, ir.TypeInt, got["PQ1y#2"])
	assert.Equal(t, ir.TypeInt, got["UQ1b"], "transitive through two joins")
	assert.Equal(t, ir.TypeUnknown, got["lonely"])
	assert.Equal(t, ir.TypeUnknown, got["other"])
}

func TestInferPropagatesThroughVarComparisons(t *testing.T) {
	filters := []ir.Filter{
		cmp(ir.Var("a"), ir.OpLt, ir.Var("b")),
		cmp(ir.Var("b"), ir.OpEq, ir.FloatLiteral(1.5)),
	}

	got := Infer(filters, nil)
	assert.Equal(t, ir.TypeFloat, got["a"])
	assert.Equal(t, ir.TypeFloat, got["b"])
}

func TestInferIgnoresLiteralOnlyFilters(t *testing.T) {
	got := Infer([]ir.Filter{cmp(ir.IntLiteral(1), ir.OpLt, ir.IntLiteral(2))}, nil)
	assert.Empty(t, got)
}

func TestInferDeterministic(t *testing.T) {
	filters := []ir.Filter{
		cmp(ir.Var("a"), ir.OpEq, ir.StringLiteral("s")),
		cmp(ir.Var("b"), ir.OpEq, ir.IntLiteral(1)),
	}
	joins := []ir.JoinPair{ir.NewJoinPair("a", "b")}

	first := Infer(filters, joins)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Infer(filters, joins))
	}
	assert.Equal(t, ir.TypeString, first["b"], "class type follows first-met order")
}

func TestAnnotate(t *testing.T) {
	q := &ir.Query{Filters: []ir.Filter{cmp(ir.Var("y"), ir.OpLt, ir.IntLiteral(10))}}
	Annotate(q)

	assert.Equal(t, map[ir.Var]ir.VarType{"y": ir.TypeInt}, q.VarTypes)
}
