package store

import (
	"context"
	"fmt"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/queryir"
	"github.com/roach88/polcheck/internal/querysql"
)

// GraphInfo summarizes one stored graph.
type GraphInfo struct {
	ID          string `json:"id"`
	Generation  uint64 `json:"generation"`
	TripleCount int    `json:"triple_count"`
}

// SkolemRecord is one stored Skolem constant.
type SkolemRecord struct {
	Var  string `json:"var"`
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

// Evaluate runs sel against its graph. Rows are DISTINCT, aligned with
// sel.Project and ordered by the projected columns in byte order. With an
// empty projection the result is either no rows or one empty row.
func (s *Store) Evaluate(ctx context.Context, sel queryir.Select) ([][]string, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	rows, err := s.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("evaluate: query: %w", err)
	}
	defer rows.Close()

	width := len(sel.Project)
	result := [][]string{}
	for rows.Next() {
		if width == 0 {
			var matched int
			if err := rows.Scan(&matched); err != nil {
				return nil, fmt.Errorf("evaluate: scan: %w", err)
			}
			result = append(result, []string{})
			continue
		}

		row := make([]string, width)
		dest := make([]any, width)
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("evaluate: scan: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: iterate: %w", err)
	}

	return result, nil
}

// Graphs lists stored graphs in generation order.
func (s *Store) Graphs(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generation, triple_count
		FROM graphs
		ORDER BY generation ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	graphs := []GraphInfo{}
	for rows.Next() {
		var g GraphInfo
		var gen int64
		if err := rows.Scan(&g.ID, &gen, &g.TripleCount); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		g.Generation = uint64(gen)
		graphs = append(graphs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return graphs, nil
}

// Triples returns the triples of one graph in pattern order.
// Returns an empty slice for an unknown graph.
func (s *Store) Triples(ctx context.Context, graphID string) ([]freeze.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, predicate, object
		FROM triples
		WHERE graph_id = ?
		ORDER BY seq ASC
	`, graphID)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	triples := []freeze.Triple{}
	for rows.Next() {
		var t freeze.Triple
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triples: %w", err)
	}
	return triples, nil
}

// Skolems returns the Skolem constants of one graph in variable order.
func (s *Store) Skolems(ctx context.Context, graphID string) ([]SkolemRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT var, text, tag
		FROM skolems
		WHERE graph_id = ?
		ORDER BY seq ASC
	`, graphID)
	if err != nil {
		return nil, fmt.Errorf("query skolems: %w", err)
	}
	defer rows.Close()

	records := []SkolemRecord{}
	for rows.Next() {
		var r SkolemRecord
		if err := rows.Scan(&r.Var, &r.Text, &r.Tag); err != nil {
			return nil, fmt.Errorf("scan skolem: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skolems: %w", err)
	}
	return records, nil
}
