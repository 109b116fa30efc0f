package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// freezeInto freezes q with a fresh Freezer that loads into s.
func freezeInto(t *testing.T, s *Store, f *freeze.Freezer, q *ir.Query) *freeze.FrozenGraph {
	t.Helper()
	if f == nil {
		f = freeze.NewFreezer(s)
	}
	g, err := f.Freeze(context.Background(), q)
	if err != nil {
		t.Fatalf("Freeze() failed: %v", err)
	}
	return g
}

// ageQuery is SELECT ?a WHERE { ?a <age> ?b . ?a <city> "Lyon" }.
func ageQuery(prefix string) *ir.Query {
	a, b := ir.Var(prefix+"a"), ir.Var(prefix+"b")
	return &ir.Query{
		Prefix: prefix,
		Select: []ir.Var{a},
		Pattern: []ir.Triple{
			{Subject: a, Predicate: ir.IRILiteral("age"), Object: b},
			{Subject: a, Predicate: ir.IRILiteral("city"), Object: ir.StringLiteral("Lyon")},
		},
	}
}
