package datalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/roach88/polcheck/internal/freeze"
	"github.com/roach88/polcheck/internal/queryir"
)

const (
	triplePredicate = "triple"
	answerPredicate = "answer"
	matchPredicate  = "matched"
	tripleDecl      = "Decl triple(Graph, Subject, Predicate, Object).\n"
)

// Evaluator holds frozen graphs as Mangle facts. Safe for concurrent use.
type Evaluator struct {
	mu      sync.Mutex
	facts   []ast.Atom
	graphs  map[string]bool
	ids     map[string]int64
	symbols []string
}

// New returns an empty Evaluator.
func New() *Evaluator {
	return &Evaluator{
		graphs: make(map[string]bool),
		ids:    make(map[string]int64),
	}
}

// intern returns the id of text, assigning the next id on first use.
// Callers hold e.mu.
func (e *Evaluator) intern(text string) int64 {
	if id, ok := e.ids[text]; ok {
		return id
	}
	id := int64(len(e.symbols))
	e.ids[text] = id
	e.symbols = append(e.symbols, text)
	return id
}

// Load adds the triples of g as facts. Loading a graph id twice is a no-op.
func (e *Evaluator) Load(_ context.Context, g *freeze.FrozenGraph) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graphs[g.ID] {
		return nil
	}
	e.graphs[g.ID] = true

	graph := ast.Number(e.intern(g.ID))
	for _, t := range g.Triples {
		e.facts = append(e.facts, ast.NewAtom(triplePredicate,
			graph,
			ast.Number(e.intern(t.Subject)),
			ast.Number(e.intern(t.Predicate)),
			ast.Number(e.intern(t.Object)),
		))
	}
	return nil
}

// Evaluate runs sel as a Mangle rule and returns DISTINCT rows aligned with
// sel.Project in byte order.
func (e *Evaluator) Evaluate(ctx context.Context, sel queryir.Select) ([][]string, error) {
	if err := queryir.Validate(sel).Err(); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	rule, ok := e.compileRule(sel)
	facts := append([]ast.Atom(nil), e.facts...)
	symbols := e.symbols
	e.mu.Unlock()

	if !ok {
		// A constant never loaded cannot match.
		return [][]string{}, nil
	}

	unit, err := parse.Unit(strings.NewReader(tripleDecl + rule))
	if err != nil {
		return nil, fmt.Errorf("evaluate: parse rule: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("evaluate: analyze rule: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	for _, f := range facts {
		store.Add(f)
	}
	if _, err := mengine.EvalProgramWithStats(programInfo, store); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	width := len(sel.Project)
	pred := ast.PredicateSym{Symbol: answerPredicate, Arity: width}
	if width == 0 {
		pred = ast.PredicateSym{Symbol: matchPredicate, Arity: 1}
	}

	rows := [][]string{}
	err = store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
		if width == 0 {
			rows = append(rows, []string{})
			return nil
		}
		row := make([]string, width)
		for i, arg := range a.Args {
			c, ok := arg.(ast.Constant)
			if !ok || c.Type != ast.NumberType || c.NumValue < 0 || int(c.NumValue) >= len(symbols) {
				return fmt.Errorf("unexpected answer term %v", arg)
			}
			row[i] = symbols[c.NumValue]
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: read answers: %w", err)
	}

	if width == 0 && len(rows) > 1 {
		rows = rows[:1]
	}
	return sortRows(rows), nil
}

// compileRule renders sel as one Mangle rule. Returns false when sel
// mentions a constant that no loaded graph contains. Callers hold e.mu.
func (e *Evaluator) compileRule(sel queryir.Select) (string, bool) {
	graphID, ok := e.ids[sel.Graph]
	if !ok {
		return "", false
	}

	names := make(map[queryir.Var]string)
	name := func(v queryir.Var) string {
		if n, ok := names[v]; ok {
			return n
		}
		n := "V" + strconv.Itoa(len(names))
		names[v] = n
		return n
	}

	var body []string
	for _, p := range sel.Where {
		args := []string{strconv.FormatInt(graphID, 10)}
		for _, term := range p.Terms() {
			switch t := term.(type) {
			case queryir.Var:
				args = append(args, name(t))
			case queryir.Const:
				id, ok := e.ids[string(t)]
				if !ok {
					return "", false
				}
				args = append(args, strconv.FormatInt(id, 10))
			}
		}
		body = append(body, triplePredicate+"("+strings.Join(args, ", ")+")")
	}

	head := matchPredicate + "(1)"
	if len(sel.Project) > 0 {
		cols := make([]string, len(sel.Project))
		for i, v := range sel.Project {
			cols[i] = name(v)
		}
		head = answerPredicate + "(" + strings.Join(cols, ", ") + ")"
	}
	return head + " :- " + strings.Join(body, ", ") + ".\n", true
}

// sortRows orders rows lexicographically by column in byte order and drops
// duplicates.
func sortRows(rows [][]string) [][]string {
	slices.SortFunc(rows, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return slices.CompactFunc(rows, func(a, b []string) bool {
		return slices.Equal(a, b)
	})
}
