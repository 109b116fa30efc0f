package store

import (
	"context"
	"fmt"

	"github.com/roach88/polcheck/internal/freeze"
)

// Load writes a frozen graph, its triples and its Skolem constants in one
// transaction. Loading a graph id that already exists is a no-op.
func (s *Store) Load(ctx context.Context, g *freeze.FrozenGraph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load graph: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (id, generation, triple_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, g.ID, int64(g.Generation), len(g.Triples))
	if err != nil {
		return fmt.Errorf("load graph %s: %w", g.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	for i, t := range g.Triples {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO triples (graph_id, seq, subject, predicate, object)
			VALUES (?, ?, ?, ?, ?)
		`, g.ID, i, t.Subject, t.Predicate, t.Object)
		if err != nil {
			return fmt.Errorf("load graph %s: triple %d: %w", g.ID, i+1, err)
		}
	}

	for i, sk := range g.Constants() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skolems (graph_id, seq, var, text, tag)
			VALUES (?, ?, ?, ?, ?)
		`, g.ID, i, string(sk.Var), sk.Text, sk.Tag.String())
		if err != nil {
			return fmt.Errorf("load graph %s: skolem %s: %w", g.ID, sk.Text, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("load graph %s: commit: %w", g.ID, err)
	}
	return nil
}
