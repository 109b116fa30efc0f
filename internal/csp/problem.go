package csp

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSearchLimit is returned when Solve exceeds the node cap.
	ErrSearchLimit = errors.New("csp: search node limit exceeded")

	// ErrUnknownVariable is returned when the constraint names a variable
	// that was never registered.
	ErrUnknownVariable = errors.New("csp: unknown variable")
)

// Domain is the half-open integer range [Lo, Hi).
type Domain struct {
	Lo int
	Hi int
}

// Size returns the number of values in the domain.
func (d Domain) Size() int {
	if d.Hi <= d.Lo {
		return 0
	}
	return d.Hi - d.Lo
}

func (d Domain) String() string {
	return fmt.Sprintf("[%d, %d)", d.Lo, d.Hi)
}

// Solution assigns a value to every registered variable.
type Solution map[string]int

// Option configures a Problem.
type Option func(*Problem)

// WithMaxNodes caps the number of search nodes Solve may visit.
// Zero or negative means no cap.
func WithMaxNodes(n int) Option {
	return func(p *Problem) { p.maxNodes = n }
}

// Problem is one constraint satisfaction problem.
type Problem struct {
	names       []string
	domains     map[string]Domain
	constraints And
	maxNodes    int
	nodes       int
}

// NewProblem returns an empty problem.
func NewProblem(opts ...Option) *Problem {
	p := &Problem{domains: make(map[string]Domain)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddVariable registers name with domain d. Registering a name twice is a
// no-op that keeps the first domain; the result reports whether name was new.
func (p *Problem) AddVariable(name string, d Domain) bool {
	if _, ok := p.domains[name]; ok {
		return false
	}
	p.names = append(p.names, name)
	p.domains[name] = d
	return true
}

// Variables returns registered names in registration order.
func (p *Problem) Variables() []string {
	return append([]string(nil), p.names...)
}

// Domain returns the domain registered for name.
func (p *Problem) Domain(name string) (Domain, bool) {
	d, ok := p.domains[name]
	return d, ok
}

// AddConstraint conjoins e with the constraints already installed.
func (p *Problem) AddConstraint(e Expr) {
	p.constraints = append(p.constraints, e)
}

// Constraint returns the installed conjunction.
func (p *Problem) Constraint() Expr {
	return p.constraints
}

// Nodes reports how many search nodes the last Solve visited.
func (p *Problem) Nodes() int {
	return p.nodes
}

// Solve searches for an assignment satisfying the constraint.
// Returns (solution, true, nil) when one exists, (nil, false, nil) when none
// does, and an error on cancellation, node cap, or a malformed constraint.
func (p *Problem) Solve(ctx context.Context) (Solution, bool, error) {
	p.nodes = 0
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	atoms, ok, err := flatten(p.constraints, nil)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	values := make(map[string][]int, len(p.names))
	for _, name := range p.names {
		d := p.domains[name]
		vals := make([]int, 0, d.Size())
		for v := d.Lo; v < d.Hi; v++ {
			vals = append(vals, v)
		}
		values[name] = vals
	}

	var binary []Cmp
	for _, a := range atoms {
		lv, lvar := a.Left.(Var)
		rv, rvar := a.Right.(Var)
		if err := checkKnown(values, a.Left, a.Right); err != nil {
			return nil, false, err
		}

		switch {
		case !lvar && !rvar:
			if !a.Op.Holds(int(a.Left.(Const)), int(a.Right.(Const))) {
				return nil, false, nil
			}
		case lvar && rvar && lv == rv:
			values[string(lv)] = prune(values[string(lv)], func(x int) bool { return a.Op.Holds(x, x) })
		case lvar && !rvar:
			c := int(a.Right.(Const))
			values[string(lv)] = prune(values[string(lv)], func(x int) bool { return a.Op.Holds(x, c) })
		case !lvar && rvar:
			c := int(a.Left.(Const))
			values[string(rv)] = prune(values[string(rv)], func(x int) bool { return a.Op.Holds(c, x) })
		default:
			binary = append(binary, a)
		}
	}

	order := p.Variables()
	for _, name := range order {
		if len(values[name]) == 0 {
			return nil, false, nil
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(values[order[i]]) < len(values[order[j]])
	})

	s := &search{
		ctx:      ctx,
		order:    order,
		values:   values,
		binary:   binary,
		assigned: make(Solution, len(order)),
		maxNodes: p.maxNodes,
	}
	found, err := s.run(0)
	p.nodes = s.nodes
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return s.assigned, true, nil
}

func checkKnown(values map[string][]int, operands ...Operand) error {
	for _, o := range operands {
		if v, ok := o.(Var); ok {
			if _, known := values[string(v)]; !known {
				return fmt.Errorf("%w: %s", ErrUnknownVariable, v)
			}
		}
	}
	return nil
}

func prune(vals []int, keep func(int) bool) []int {
	out := vals[:0]
	for _, v := range vals {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

type search struct {
	ctx      context.Context
	order    []string
	values   map[string][]int
	binary   []Cmp
	assigned Solution
	nodes    int
	maxNodes int
}

func (s *search) run(depth int) (bool, error) {
	if depth == len(s.order) {
		return true, nil
	}
	name := s.order[depth]
	for _, v := range s.values[name] {
		s.nodes++
		if s.maxNodes > 0 && s.nodes > s.maxNodes {
			return false, ErrSearchLimit
		}
		if s.nodes%1024 == 0 {
			if err := s.ctx.Err(); err != nil {
				return false, err
			}
		}

		s.assigned[name] = v
		if s.consistent() {
			found, err := s.run(depth + 1)
			if err != nil || found {
				return found, err
			}
		}
		delete(s.assigned, name)
	}
	return false, nil
}

// consistent checks every binary atom whose operands are both assigned.
func (s *search) consistent() bool {
	for _, a := range s.binary {
		l, lok := s.assigned[string(a.Left.(Var))]
		r, rok := s.assigned[string(a.Right.(Var))]
		if lok && rok && !a.Op.Holds(l, r) {
			return false
		}
	}
	return true
}
