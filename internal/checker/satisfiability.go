package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/polcheck/internal/csp"
	"github.com/roach88/polcheck/internal/encoding"
	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/policy"
	"github.com/roach88/polcheck/internal/typing"
)

// SatResult is the outcome of the satisfiability stage.
type SatResult struct {
	// Compatible is true when no witness row admits a satisfying assignment.
	Compatible bool

	// Lines are the 1-based overlap lines whose constraints are satisfiable.
	Lines []int

	// Reasons explains the satisfiable lines. Empty when Compatible.
	Reasons []string
}

// Satisfiability checks every witness row of overlap. For each row it
// rewrites the filters and joins of pq united with utility so that each
// utility variable frozen into a bound Skolem is replaced by the privacy
// variable bound to it, joins privacy variables bound to the same Skolem,
// then solves the encoded constraint.
//
// Witness rows are checked concurrently up to Options.Parallelism. The
// first error cancels the remaining checks.
func (c *Checker) Satisfiability(ctx context.Context, pq, utility *ir.Query, graph *freeze.FrozenGraph, overlap *OverlapResult) (*SatResult, error) {
	if pq == nil || utility == nil || graph == nil || overlap == nil {
		return nil, fmt.Errorf("satisfiability: nil argument")
	}

	combined := policy.Union(pq, utility)
	sat := make([]bool, len(overlap.Witnesses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallelism)
	for i, row := range overlap.Witnesses {
		g.Go(func() error {
			ok, err := c.solveRow(gctx, combined, graph, overlap.Vars, row)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", pq.Prefix, row.Line, err)
			}
			sat[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &SatResult{Compatible: true}
	for i, ok := range sat {
		if ok {
			res.Lines = append(res.Lines, overlap.Witnesses[i].Line)
		}
	}
	if len(res.Lines) > 0 {
		res.Compatible = false
		res.Reasons = []string{
			"the filter expression is satisfiable for result line(s) " + joinInts(res.Lines),
		}
	}
	return res, nil
}

func (c *Checker) solveRow(ctx context.Context, combined *ir.Query, graph *freeze.FrozenGraph, vars []ir.Var, row Row) (bool, error) {
	q := combined.Clone()
	b := Bind(graph, vars, row)
	q.Joins = append(q.Joins, b.Joins...)
	policy.Substitute(q, b.Subst)
	typing.Annotate(q)

	enc, err := encoding.Encode(q.Filters, q.Joins, q.VarTypes, encoding.Options{MaxDomain: c.opts.MaxDomain})
	if err != nil {
		return false, err
	}

	var opts []csp.Option
	if c.opts.MaxSearchNodes > 0 {
		opts = append(opts, csp.WithMaxNodes(c.opts.MaxSearchNodes))
	}
	problem := enc.Problem(opts...)
	_, ok, err := problem.Solve(ctx)
	if err != nil {
		return false, err
	}

	c.logger.Debug("witness solved",
		slog.String("query", combined.Prefix),
		slog.Int("line", row.Line),
		slog.String("encoding", enc.String()),
		slog.Int("nodes", problem.Nodes()),
		slog.Bool("satisfiable", ok))
	return ok, nil
}

// Binding is the rewriting of one witness row.
type Binding struct {
	// Subst maps each utility variable frozen into a Skolem bound in the
	// row to the first privacy variable bound to that Skolem.
	Subst map[ir.Var]ir.Var

	// Joins equates every further privacy variable bound to the same
	// Skolem with that first privacy variable.
	Joins []ir.JoinPair
}

// Bind links the privacy variables of row to the utility variables whose
// Skolems they are bound to. Privacy variables sharing a Skolem are equal
// in the witness, so all but the first are joined to the first.
func Bind(graph *freeze.FrozenGraph, vars []ir.Var, row Row) Binding {
	b := Binding{Subst: make(map[ir.Var]ir.Var)}
	first := make(map[string]ir.Var)
	for i, v := range vars {
		val := row.Values[i]
		if !val.IsSkolem() {
			continue
		}
		if p, seen := first[val.Text]; seen {
			if j := ir.NewJoinPair(p, v); !j.Reflexive() {
				b.Joins = append(b.Joins, j)
			}
			continue
		}
		first[val.Text] = v
		if u, ok := graph.VarOf(val.Text); ok {
			b.Subst[u] = v
		}
	}
	return b
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
