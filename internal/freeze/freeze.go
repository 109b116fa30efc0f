package freeze

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/polcheck/internal/ir"
)

// Triple is one ground triple in wire text.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (t Triple) String() string {
	return t.Subject + " " + t.Predicate + " " + t.Object + " ."
}

// FrozenGraph is the ground instance of one query's graph pattern.
// Immutable once returned by Freeze.
type FrozenGraph struct {
	// ID identifies the graph inside a shared store.
	ID string

	// Generation is the freeze counter value that produced the constants.
	Generation uint64

	// Triples are the ground triples in pattern order.
	Triples []Triple

	vars      []ir.Var
	constants map[ir.Var]Skolem
	byText    map[string]ir.Var
}

// Vars returns the frozen variables in first-appearance order.
func (g *FrozenGraph) Vars() []ir.Var {
	return append([]ir.Var(nil), g.vars...)
}

// Constant returns the Skolem that replaced v.
func (g *FrozenGraph) Constant(v ir.Var) (Skolem, bool) {
	s, ok := g.constants[v]
	return s, ok
}

// VarOf returns the variable a Skolem text replaced.
func (g *FrozenGraph) VarOf(text string) (ir.Var, bool) {
	v, ok := g.byText[text]
	return v, ok
}

// Constants returns the Skolems in variable order.
func (g *FrozenGraph) Constants() []Skolem {
	out := make([]Skolem, len(g.vars))
	for i, v := range g.vars {
		out[i] = g.constants[v]
	}
	return out
}

// String renders the graph one triple per line.
func (g *FrozenGraph) String() string {
	var b strings.Builder
	for _, t := range g.Triples {
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Loader receives ground triples. Implemented by store.Store and
// datalog.Evaluator.
type Loader interface {
	Load(ctx context.Context, g *FrozenGraph) error
}

// Freezer assigns Skolem generations. Safe for concurrent use.
type Freezer struct {
	loader Loader

	mu         sync.Mutex
	generation uint64
}

// NewFreezer returns a Freezer that loads every graph into loader.
// A nil loader only builds graphs.
func NewFreezer(loader Loader) *Freezer {
	return &Freezer{loader: loader}
}

func (f *Freezer) next() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return f.generation
}

// Freeze substitutes one fresh Skolem per distinct pattern variable of q,
// tagged Output when q projects the variable, and loads the result.
// Constants never repeat across calls on the same Freezer.
func (f *Freezer) Freeze(ctx context.Context, q *ir.Query) (*FrozenGraph, error) {
	if q == nil {
		return nil, fmt.Errorf("freeze: nil query")
	}
	for i, t := range q.Pattern {
		for _, term := range t.Terms() {
			if _, ok := term.(ir.Literal); !ok {
				if _, ok := ir.IsVar(term); !ok {
					return nil, fmt.Errorf("freeze: %s triple %d: unsupported term %T", q.Prefix, i+1, term)
				}
			}
		}
	}
	gen := f.next()

	g := &FrozenGraph{
		Generation: gen,
		constants:  make(map[ir.Var]Skolem),
		byText:     make(map[string]ir.Var),
	}
	for _, v := range q.PatternVars() {
		tag := Internal
		if q.IsOutput(v) {
			tag = Output
		}
		s := NewSkolem(v, tag, gen)
		g.vars = append(g.vars, v)
		g.constants[v] = s
		g.byText[s.Text] = v
	}

	ground := func(t ir.Term) string {
		if v, ok := ir.IsVar(t); ok {
			return g.constants[v].Text
		}
		return t.(ir.Literal).Key()
	}

	keys := make([]string, 0, len(q.Pattern))
	for _, t := range q.Pattern {
		gt := Triple{
			Subject:   ground(t.Subject),
			Predicate: ground(t.Predicate),
			Object:    ground(t.Object),
		}
		g.Triples = append(g.Triples, gt)
		keys = append(keys, gt.String())
	}
	g.ID = fmt.Sprintf("%s-%d", ir.GraphDigest(keys)[:16], gen)

	if f.loader != nil {
		if err := f.loader.Load(ctx, g); err != nil {
			return nil, fmt.Errorf("freeze: load graph %s: %w", g.ID, err)
		}
	}
	return g, nil
}
