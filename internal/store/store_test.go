package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/queryir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	graphs, err := s.Graphs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, graphs)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	s.Close()

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestLoad_WritesGraph(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := freezeInto(t, s, nil, ageQuery("UQ1"))

	graphs, err := s.Graphs(ctx)
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, GraphInfo{ID: g.ID, Generation: 1, TripleCount: 2}, graphs[0])

	triples, err := s.Triples(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Triples, triples)

	skolems, err := s.Skolems(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, skolems, 2)
	assert.Equal(t, SkolemRecord{Var: "UQ1a", Text: "_:o1.UQ1a", Tag: "output"}, skolems[0])
	assert.Equal(t, "internal", skolems[1].Tag)
}

func TestLoad_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := freezeInto(t, s, nil, ageQuery("UQ1"))
	require.NoError(t, s.Load(ctx, g))

	triples, err := s.Triples(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, triples, 2)
}

func TestTriples_UnknownGraph(t *testing.T) {
	s := createTestStore(t)

	triples, err := s.Triples(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestEvaluate_BindsVariables(t *testing.T) {
	s := createTestStore(t)
	g := freezeInto(t, s, nil, ageQuery("UQ1"))

	sel := queryir.Select{
		Graph: g.ID,
		Where: []queryir.Pattern{
			{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")},
		},
		Project: []queryir.Var{"x", "y"},
	}

	rows, err := s.Evaluate(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"_:o1.UQ1a", "_:i1.UQ1b"}}, rows)
}

func TestEvaluate_ConstantsAndJoins(t *testing.T) {
	s := createTestStore(t)
	g := freezeInto(t, s, nil, ageQuery("UQ1"))
	ctx := context.Background()

	sel := queryir.Select{
		Graph: g.ID,
		Where: []queryir.Pattern{
			{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")},
			{Subject: queryir.Var("x"), Predicate: queryir.Const("<city>"), Object: queryir.Const(`"Lyon"`)},
		},
		Project: []queryir.Var{"y"},
	}
	rows, err := s.Evaluate(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"_:i1.UQ1b"}}, rows)

	sel.Where[1].Object = queryir.Const(`"Paris"`)
	rows, err = s.Evaluate(ctx, sel)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEvaluate_ScopedByGraph(t *testing.T) {
	s := createTestStore(t)
	f := freeze.NewFreezer(s)
	g1 := freezeInto(t, s, f, ageQuery("UQ1"))
	freezeInto(t, s, f, ageQuery("UQ2"))

	sel := queryir.Select{
		Graph:   g1.ID,
		Where:   []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")}},
		Project: []queryir.Var{"x"},
	}
	rows, err := s.Evaluate(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"_:o1.UQ1a"}}, rows)
}

func TestEvaluate_DistinctAndOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := &freeze.FrozenGraph{
		ID:         "manual",
		Generation: 1,
		Triples: []freeze.Triple{
			{Subject: "b", Predicate: "<p>", Object: "1"},
			{Subject: "a", Predicate: "<p>", Object: "2"},
			{Subject: "b", Predicate: "<p>", Object: "1"},
			{Subject: "B", Predicate: "<p>", Object: "3"},
		},
	}
	require.NoError(t, s.Load(ctx, g))

	sel := queryir.Select{
		Graph:   "manual",
		Where:   []queryir.Pattern{{Subject: queryir.Var("s"), Predicate: queryir.Const("<p>"), Object: queryir.Var("o")}},
		Project: []queryir.Var{"s"},
	}
	rows, err := s.Evaluate(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"B"}, {"a"}, {"b"}}, rows, "byte order, duplicates removed")
}

func TestEvaluate_EmptyProjection(t *testing.T) {
	s := createTestStore(t)
	g := freezeInto(t, s, nil, ageQuery("UQ1"))
	ctx := context.Background()

	sel := queryir.Select{
		Graph: g.ID,
		Where: []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")}},
	}
	rows, err := s.Evaluate(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}}, rows)

	sel.Where[0].Predicate = queryir.Const("<missing>")
	rows, err = s.Evaluate(ctx, sel)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEvaluate_InvalidSelect(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Evaluate(context.Background(), queryir.Select{})
	assert.ErrorIs(t, err, queryir.ErrInvalidQuery)
}

func TestEvaluate_ProjectedSelectInMemory(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	a := ir.Var("UQ1a")
	g := freezeInto(t, s, nil, &ir.Query{
		Prefix:  "UQ1",
		Select:  []ir.Var{a},
		Pattern: []ir.Triple{{Subject: a, Predicate: ir.IRILiteral("age"), Object: ir.IntLiteral(30)}},
	})

	sel := queryir.Select{
		Graph:   g.ID,
		Where:   []queryir.Pattern{{Subject: queryir.Var("x"), Predicate: queryir.Const("<age>"), Object: queryir.Var("y")}},
		Project: []queryir.Var{"x", "y"},
	}
	rows, err := s.Evaluate(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"_:o1.UQ1a", "30"}}, rows)
}
