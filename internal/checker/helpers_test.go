package checker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/datalog"
	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/policy"
	"github.com/roach88/polcheck/internal/store"
)

// evaluators returns one fresh instance of every Evaluator implementation.
func evaluators(t *testing.T) map[string]Evaluator {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return map[string]Evaluator{
		"sqlite": s,
		"mangle": datalog.New(),
	}
}

// prepare renames and join-extracts q the way the engine does.
func prepare(q *ir.Query, prefix string, privacy bool) *ir.Query {
	policy.Rename(q, prefix)
	if privacy {
		policy.ExtractJoins(q)
	}
	return q
}

func freezeUtility(t *testing.T, eval Evaluator, utility *ir.Query) *freeze.FrozenGraph {
	t.Helper()
	g, err := freeze.NewFreezer(eval).Freeze(context.Background(), utility)
	require.NoError(t, err)
	return g
}

func ageTriple(s, o ir.Term) ir.Triple {
	return ir.Triple{Subject: s, Predicate: ir.IRILiteral("age"), Object: o}
}

func cityTriple(s, o ir.Term) ir.Triple {
	return ir.Triple{Subject: s, Predicate: ir.IRILiteral("city"), Object: o}
}

// SELECT ?x WHERE { ?x <age> ?y }
func scenarioAPrivacy() *ir.Query {
	return prepare(&ir.Query{
		Select:  []ir.Var{"x"},
		Pattern: []ir.Triple{ageTriple(ir.Var("x"), ir.Var("y"))},
	}, "PQ1", true)
}

// SELECT ?a WHERE { ?a <age> 30 }
func scenarioAUtility() *ir.Query {
	return prepare(&ir.Query{
		Select:  []ir.Var{"a"},
		Pattern: []ir.Triple{ageTriple(ir.Var("a"), ir.IntLiteral(30))},
	}, "UQ1", false)
}

// SELECT ?x ?y WHERE { ?x <age> ?y }
func scenarioB(prefix string, privacy bool) *ir.Query {
	return prepare(&ir.Query{
		Select:  []ir.Var{"x", "y"},
		Pattern: []ir.Triple{ageTriple(ir.Var("x"), ir.Var("y"))},
	}, prefix, privacy)
}

// SELECT ?x WHERE { ?x <age> ?y FILTER(?y > 18) }
func scenarioCPrivacy() *ir.Query {
	return prepare(&ir.Query{
		Select:  []ir.Var{"x"},
		Pattern: []ir.Triple{ageTriple(ir.Var("x"), ir.Var("y"))},
		Filters: []ir.Filter{{Left: ir.Var("y"), Op: ir.OpGt, Right: ir.IntLiteral(18)}},
	}, "PQ1", true)
}

// SELECT ?a ?b WHERE { ?a <age> ?b FILTER(?b <op> <bound>) }
func scenarioCUtility(op ir.Comparator, bound int64) *ir.Query {
	return prepare(&ir.Query{
		Select:  []ir.Var{"a", "b"},
		Pattern: []ir.Triple{ageTriple(ir.Var("a"), ir.Var("b"))},
		Filters: []ir.Filter{{Left: ir.Var("b"), Op: op, Right: ir.IntLiteral(bound)}},
	}, "UQ1", false)
}
