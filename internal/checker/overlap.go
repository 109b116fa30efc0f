package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/queryir"
)

// Row is one decoded evaluation row. Line is 1-based in result order.
type Row struct {
	Line   int            `json:"line"`
	Values []freeze.Value `json:"values"`
}

// Texts returns the wire text of every value.
func (r Row) Texts() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Text
	}
	return out
}

// OverlapResult is the outcome of the overlap stage.
type OverlapResult struct {
	// Compatible is false when at least one witness row exists.
	Compatible bool

	// Reasons explains every witness in row order.
	Reasons []string

	// Vars are the selected privacy variables; row values align with them.
	Vars []ir.Var

	// Rows holds every evaluated row.
	Rows []Row

	// Witnesses holds the rows that could witness a leak.
	Witnesses []Row
}

// Overlap evaluates pq's graph pattern over graph, selecting pq's
// non-timestamp variables, and classifies every row.
//
// A row is non-threatening when:
//   - some selected variable is bound to a genuine value, or
//   - some projected privacy variable is bound to a value that is not an
//     output Skolem, or
//   - some join pair binds two different values and at least one of them
//     is not an output Skolem.
//
// Join pairs binding two different output Skolems become leakage
// conditions: the row is a witness if those Skolems were equal.
func (c *Checker) Overlap(ctx context.Context, pq *ir.Query, graph *freeze.FrozenGraph) (*OverlapResult, error) {
	vars := pq.SelectableVars()
	sel := queryir.FromQuery(pq, graph.ID, vars)

	c.logger.Debug("evaluating privacy query",
		slog.String("query", pq.Prefix),
		slog.String("select", sel.String()))

	raw, err := c.eval.Evaluate(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("overlap %s: %w", pq.Prefix, err)
	}

	index := make(map[ir.Var]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}

	res := &OverlapResult{Compatible: true, Vars: vars}
	for i, cells := range raw {
		row := Row{Line: i + 1, Values: freeze.DecodeRow(cells)}
		res.Rows = append(res.Rows, row)

		conditions, threat := classify(pq, vars, index, row)
		if !threat {
			continue
		}

		res.Compatible = false
		res.Witnesses = append(res.Witnesses, row)
		switch {
		case len(pq.Joins) == 0:
			if len(res.Witnesses) == 1 {
				res.Reasons = append(res.Reasons,
					fmt.Sprintf("the freezing returns results for %s", pq.Prefix))
			}
		case len(conditions) > 0:
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("a freezing where %s returns results for %s in line %d",
					strings.Join(conditions, " and "), pq.Prefix, row.Line))
		default:
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("the freezing returns results for %s in line %d", pq.Prefix, row.Line))
		}
	}

	c.logger.Debug("overlap evaluated",
		slog.String("query", pq.Prefix),
		slog.Int("rows", len(res.Rows)),
		slog.Int("witnesses", len(res.Witnesses)))

	return res, nil
}

// classify returns the leakage conditions of row and whether it is a
// witness.
func classify(pq *ir.Query, vars []ir.Var, index map[ir.Var]int, row Row) ([]string, bool) {
	for i, v := range vars {
		val := row.Values[i]
		if !val.IsSkolem() {
			return nil, false
		}
		if pq.IsOutput(v) && val.Tag != freeze.Output {
			return nil, false
		}
	}

	conditions := ir.NewOrderedSet[string]()
	for _, j := range pq.Joins {
		li, lok := index[j.Left]
		ri, rok := index[j.Right]
		if !lok || !rok {
			continue
		}
		lv, rv := row.Values[li], row.Values[ri]
		if lv.Text == rv.Text {
			continue
		}
		if lv.Tag != freeze.Output || rv.Tag != freeze.Output {
			return nil, false
		}
		conditions.Add(lv.Text + " == " + rv.Text)
	}
	return conditions.Items(), true
}
