package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuery() *Query {
	return &Query{
		Prefix: "PQ1",
		Select: []Var{"x"},
		Pattern: []Triple{
			{Subject: Var("x"), Predicate: IRILiteral("age"), Object: Var("y")},
			{Subject: Var("x"), Predicate: IRILiteral("timestamp"), Object: Var("t")},
		},
		Filters:    []Filter{{Left: Var("y"), Op: OpGt, Right: IntLiteral(18)}},
		Timestamps: []Var{"t"},
	}
}

func TestComparatorString(t *testing.T) {
	assert.Equal(t, "=", OpEq.String())
	assert.Equal(t, "!=", OpNe.String())
	assert.Equal(t, ">=", OpGe.String())
	assert.Equal(t, "Comparator(42)", Comparator(42).String())
}

func TestParseComparator(t *testing.T) {
	tests := []struct {
		in   string
		want Comparator
	}{
		{"=", OpEq}, {"==", OpEq}, {"!=", OpNe}, {"<>", OpNe},
		{"<", OpLt}, {"<=", OpLe}, {">", OpGt}, {">=", OpGe},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseComparator(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseComparator("=~")
	assert.Error(t, err)
}

func TestComparatorHolds(t *testing.T) {
	assert.True(t, OpLt.Holds(-1))
	assert.False(t, OpLt.Holds(0))
	assert.True(t, OpLe.Holds(0))
	assert.True(t, OpNe.Holds(1))
	assert.False(t, OpEq.Holds(1))
	assert.True(t, OpGe.Holds(1))
}

func TestNewJoinPairNormalizes(t *testing.T) {
	a := NewJoinPair("b", "a")
	b := NewJoinPair("a", "b")

	assert.Equal(t, a, b)
	assert.Equal(t, Var("a"), a.Left)
	assert.False(t, a.Reflexive())
	assert.True(t, NewJoinPair("a", "a").Reflexive())
}

func TestQueryIsOutput(t *testing.T) {
	q := sampleQuery()

	assert.True(t, q.IsOutput("x"))
	assert.True(t, q.IsOutput("x#2"), "occurrence variables inherit output status")
	assert.False(t, q.IsOutput("y"))
}

func TestQueryIsTimestamp(t *testing.T) {
	q := sampleQuery()

	assert.True(t, q.IsTimestamp("t"))
	assert.True(t, q.IsTimestamp("t#3"))
	assert.False(t, q.IsTimestamp("x"))
}

func TestQueryIsConjunctive(t *testing.T) {
	q := sampleQuery()
	assert.False(t, q.IsConjunctive())

	plain := &Query{Select: []Var{"x"}, Pattern: q.Pattern[:1]}
	assert.True(t, plain.IsConjunctive())

	plain.Aggregate = true
	assert.False(t, plain.IsConjunctive())
}

func TestQueryPatternVars(t *testing.T) {
	q := sampleQuery()

	assert.Equal(t, []Var{"x", "y", "t"}, q.PatternVars())
	assert.Equal(t, []Var{"x", "y"}, q.SelectableVars())
}

func TestQueryCloneIsDeep(t *testing.T) {
	q := sampleQuery()
	q.VarTypes = map[Var]VarType{"y": TypeInt}
	c := q.Clone()

	if diff := cmp.Diff(q, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	c.Select[0] = "z"
	c.Filters[0].Op = OpLt
	c.VarTypes["y"] = TypeString

	assert.Equal(t, Var("x"), q.Select[0])
	assert.Equal(t, OpGt, q.Filters[0].Op)
	assert.Equal(t, TypeInt, q.VarTypes["y"])
}

func TestQueryString(t *testing.T) {
	q := &Query{
		Select:  []Var{"x"},
		Pattern: []Triple{{Subject: Var("x"), Predicate: IRILiteral("age"), Object: IntLiteral(30)}},
		Filters: []Filter{{Left: Var("x"), Op: OpNe, Right: StringLiteral("bob")}},
		Joins:   []JoinPair{NewJoinPair("x", "x#2")},
	}

	assert.Equal(t,
		`SELECT ?x WHERE { ?x <age> 30 FILTER(?x != "bob") } # joins: ?x = ?x#2`,
		q.String())
}

func TestVarTypeMerge(t *testing.T) {
	tests := []struct {
		a, b, want VarType
	}{
		{TypeUnknown, TypeInt, TypeInt},
		{TypeInt, TypeUnknown, TypeInt},
		{TypeInt, TypeFloat, TypeFloat},
		{TypeFloat, TypeInt, TypeFloat},
		{TypeString, TypeInt, TypeString},
		{TypeTimestamp, TypeTimestamp, TypeTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"+"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Merge(tt.b))
		})
	}
}

func TestWorst(t *testing.T) {
	assert.Equal(t, Compatible, Worst())
	assert.Equal(t, Incompatible, Worst(Compatible, Maybe, Incompatible))
	assert.Equal(t, Maybe, Worst(Compatible, Maybe, Compatible))
	assert.Equal(t, Incompatible, Worst(Incompatible, Compatible))
}

func TestVerdictText(t *testing.T) {
	for _, v := range []Verdict{Compatible, Maybe, Incompatible} {
		text, err := v.MarshalText()
		require.NoError(t, err)

		var back Verdict
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, v, back)
	}

	var v Verdict
	assert.Error(t, v.UnmarshalText([]byte("perhaps")))
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"b", "a"}, s.Items())

	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))
	assert.True(t, s.Has("c"))
	assert.Equal(t, 2, s.Index("c"))
	assert.Equal(t, -1, s.Index("zz"))

	items := s.Items()
	items[0] = "mutated"
	assert.Equal(t, "b", s.Items()[0], "Items returns a copy")
}

func TestQueryDigest(t *testing.T) {
	a := sampleQuery()
	b := sampleQuery()
	b.Prefix = "PQ9"
	b.Source = "different text"

	assert.Equal(t, QueryDigest(a), QueryDigest(b), "prefix and source are not structural")
	assert.Len(t, QueryDigest(a), 64)

	b.Filters[0].Right = IntLiteral(19)
	assert.NotEqual(t, QueryDigest(a), QueryDigest(b))
}

func TestGraphDigestOrderSensitive(t *testing.T) {
	assert.NotEqual(t, GraphDigest([]string{"a", "b"}), GraphDigest([]string{"b", "a"}))
	assert.Equal(t, GraphDigest([]string{"a"}), GraphDigest([]string{"a"}))
}
