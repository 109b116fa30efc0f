package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/roach88/polcheck/internal/checker"
	"github.com/roach88/polcheck/internal/compiler"
	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/ir"
	"github.com/roach88/polcheck/internal/policy"
	"github.com/roach88/polcheck/internal/typing"
)

// Engine checks privacy policies against utility policies.
//
// An Engine owns one Freezer, so successive runs against the same
// evaluator freeze into disjoint Skolem constants. Check is not safe for
// concurrent use.
type Engine struct {
	eval        checker.Evaluator
	freezer     *freeze.Freezer
	logger      *slog.Logger
	runIDs      RunIDGenerator
	quota       Quota
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Debug records trace every stage.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator sets the run id source.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithQuota sets the satisfiability caps.
//
// Default: DefaultQuota()
func WithQuota(q Quota) Option {
	return func(e *Engine) {
		e.quota = q
	}
}

// WithParallelism caps concurrent witness checks per privacy query.
//
// Default: runtime.NumCPU()
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// New creates an Engine evaluating against eval.
func New(eval checker.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		eval:        eval,
		freezer:     freeze.NewFreezer(eval),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:      UUIDv7Generator{},
		quota:       DefaultQuota(),
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check runs the compatibility check of every privacy query against the
// union of the utility queries.
//
// Queries without a prefix are renamed PQ1, PQ2, ... and UQ1, UQ2, ... in
// the order given. Inputs are not modified.
func (e *Engine) Check(ctx context.Context, privacy, utility []*ir.Query) (*Report, error) {
	if e.eval == nil {
		return nil, NewContractError("", "engine has no evaluator")
	}

	pqs, err := prepare(privacy, "PQ", true)
	if err != nil {
		return nil, err
	}
	uqs, err := prepare(utility, "UQ", false)
	if err != nil {
		return nil, err
	}
	if err := distinctPrefixes(pqs, uqs); err != nil {
		return nil, err
	}

	union := policy.UnionAll(uqs...)
	graph, err := e.freezer.Freeze(ctx, union)
	if err != nil {
		return nil, fmt.Errorf("freeze utility union: %w", err)
	}
	e.logger.Debug("utility union frozen",
		slog.String("graph", graph.ID),
		slog.Int("triples", len(graph.Triples)),
		slog.String("union", union.String()))

	chk := checker.New(e.eval, e.logger, checker.Options{
		Parallelism:    e.parallelism,
		MaxDomain:      e.quota.MaxDomain,
		MaxSearchNodes: e.quota.MaxSearchNodes,
	})

	report := &Report{
		RunID:   e.runIDs.Generate(),
		GraphID: graph.ID,
		Graph:   graph,
		Privacy: pqs,
		Utility: uqs,
	}
	clock := NewClock()
	verdicts := make([]ir.Verdict, 0, len(pqs))
	for _, pq := range pqs {
		qr, err := e.checkQuery(ctx, chk, clock, pq, union, graph)
		if err != nil {
			return nil, err
		}
		e.logger.Info("privacy query checked",
			slog.String("query", qr.Query),
			slog.String("verdict", qr.Verdict.String()),
			slog.String("theorem", qr.Theorem))
		report.Queries = append(report.Queries, *qr)
		verdicts = append(verdicts, qr.Verdict)
	}

	report.Verdict = ir.Worst(verdicts...)
	report.Conclusion = Conclusion(report.Verdict)
	return report, nil
}

// checkQuery walks one privacy query through the state machine.
func (e *Engine) checkQuery(ctx context.Context, chk *checker.Checker, clock *Clock, pq, union *ir.Query, graph *freeze.FrozenGraph) (*QueryReport, error) {
	name := pq.Prefix
	qr := &QueryReport{Query: name, Digest: ir.QueryDigest(pq)[:16]}

	overlap, err := chk.Overlap(ctx, pq, graph)
	if err != nil {
		return nil, err
	}
	qr.Overlap = overlap
	qr.Witnesses = len(overlap.Witnesses)

	if overlap.Compatible {
		qr.settle(clock, StageOverlap, ir.Compatible, TheoremOverlap,
			fmt.Sprintf("According to Theorem 4.3, privacy query %s is compatible with the utility policy.", name))
		return qr, nil
	}
	if pq.IsConjunctive() {
		qr.Reasons = overlap.Reasons
		qr.settle(clock, StageOverlap, ir.Incompatible, TheoremConjunctive,
			fmt.Sprintf("According to Theorem 4.1 (full characterization), privacy query %s IS NOT COMPATIBLE with utility policy !", name))
		return qr, nil
	}
	qr.step(clock, StageOverlap, ir.Maybe)

	sat, err := chk.Satisfiability(ctx, pq, union, graph, overlap)
	if err != nil {
		return nil, e.quota.enforce(name, err)
	}
	qr.Satisfiability = sat

	switch {
	case sat.Compatible:
		qr.settle(clock, StageSatisfiability, ir.Compatible, TheoremFilter,
			fmt.Sprintf("According to Theorem 4.6 (sufficient condition), privacy query %s is compatible with utility policy !", name))
	case pq.Aggregate:
		qr.Reasons = append(append([]string(nil), overlap.Reasons...), sat.Reasons...)
		qr.settle(clock, StageSatisfiability, ir.Maybe, TheoremFilter,
			fmt.Sprintf("According to Theorem 4.6 (sufficient condition), privacy query %s MAY NOT BE COMPATIBLE with utility policy !", name))
	default:
		qr.Reasons = append(append([]string(nil), overlap.Reasons...), sat.Reasons...)
		qr.settle(clock, StageSatisfiability, ir.Incompatible, TheoremNoAggregate,
			fmt.Sprintf("According to Theorem 4.5, privacy query %s, containing no aggregate computation, IS WEAKLY INCOMPATIBLE with utility policy !", name))
	}
	return qr, nil
}

// prepare clones, names, join-extracts (privacy only) and types qs.
func prepare(qs []*ir.Query, kind string, privacy bool) ([]*ir.Query, error) {
	out := make([]*ir.Query, 0, len(qs))
	for i, q := range qs {
		name := fmt.Sprintf("%s%d", kind, i+1)
		if q == nil {
			return nil, NewContractError(name, "nil query")
		}
		c := q.Clone()
		if c.Prefix == "" {
			policy.Rename(c, name)
		}
		if err := validate(c); err != nil {
			return nil, err
		}
		if privacy {
			policy.ExtractJoins(c)
		}
		typing.Annotate(c)
		out = append(out, c)
	}
	return out, nil
}

// validate checks the structural contract every query must meet. Only
// the first violation is reported.
func validate(q *ir.Query) error {
	errs := compiler.Validate(q)
	if len(errs) == 0 {
		return nil
	}
	err := NewContractError(q.Prefix, errs[0].Field+": "+errs[0].Message)
	err.Details = map[string]string{"code": errs[0].Code}
	return err
}

func distinctPrefixes(groups ...[]*ir.Query) error {
	seen := make(map[string]bool)
	for _, qs := range groups {
		for _, q := range qs {
			if seen[q.Prefix] {
				return NewContractError(q.Prefix, "duplicate query prefix")
			}
			seen[q.Prefix] = true
		}
	}
	return nil
}
