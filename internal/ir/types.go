package ir

import (
	"fmt"
	"strings"
)

// Triple is one triple pattern of a graph pattern. Each component is a Var
// or a Literal.
type Triple struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// Terms returns the subject, predicate and object in position order.
func (t Triple) Terms() [3]Term {
	return [3]Term{t.Subject, t.Predicate, t.Object}
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object)
}

// Comparator is a filter comparison operator.
type Comparator int

const (
	OpEq Comparator = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var comparatorText = [...]string{
	OpEq: "=",
	OpNe: "!=",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

func (c Comparator) String() string {
	if int(c) < len(comparatorText) {
		return comparatorText[c]
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// ParseComparator accepts the SPARQL spellings, including "<>" and "==".
func ParseComparator(s string) (Comparator, error) {
	switch s {
	case "=", "==":
		return OpEq, nil
	case "!=", "<>":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	default:
		return 0, fmt.Errorf("unknown comparator %q", s)
	}
}

// Holds reports whether cmp (the result of comparing left to right) satisfies c.
func (c Comparator) Holds(cmp int) bool {
	switch c {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// Filter is a single comparison between two operands.
type Filter struct {
	Left  Term       `json:"left"`
	Op    Comparator `json:"op"`
	Right Term       `json:"right"`
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Left, f.Op, f.Right)
}

// JoinPair is an unordered pair of variables forced equal.
// Construct with NewJoinPair so that Left <= Right always holds.
type JoinPair struct {
	Left  Var `json:"left"`
	Right Var `json:"right"`
}

// NewJoinPair normalizes the pair order.
func NewJoinPair(a, b Var) JoinPair {
	if b < a {
		a, b = b, a
	}
	return JoinPair{Left: a, Right: b}
}

// Reflexive reports whether both sides name the same variable.
func (j JoinPair) Reflexive() bool {
	return j.Left == j.Right
}

func (j JoinPair) String() string {
	return fmt.Sprintf("%s = %s", j.Left, j.Right)
}

// Query is one policy query (a time-annotated conjunctive query with filters).
//
// Lifecycle: created by a parser, then mutated in place by renaming, join
// extraction and type annotation. Queries are never shared between runs.
type Query struct {
	// Prefix is the namespace unique across a run ("PQ1", "UQ2", ...).
	Prefix string `json:"prefix"`

	// Select is the projection list: the variables exposed to a caller.
	Select []Var `json:"select"`

	// Pattern is the ordered graph pattern.
	Pattern []Triple `json:"pattern"`

	// Filters is the ordered conjunction of comparisons.
	Filters []Filter `json:"filters,omitempty"`

	// Joins is derived by join extraction, never authored.
	Joins []JoinPair `json:"joins,omitempty"`

	// Aggregate marks queries computing aggregates or time windows.
	Aggregate bool `json:"aggregate,omitempty"`

	// Timestamps lists the time-annotation variables of the pattern.
	Timestamps []Var `json:"timestamps,omitempty"`

	// VarTypes is populated lazily by type inference.
	VarTypes map[Var]VarType `json:"var_types,omitempty"`

	// Source is the raw query text, kept for diagnostics.
	Source string `json:"-"`
}

// IsOutput reports whether v (or the variable it was split from) is projected.
func (q *Query) IsOutput(v Var) bool {
	base := v.Base()
	for _, s := range q.Select {
		if s == v || s == base {
			return true
		}
	}
	return false
}

// IsTimestamp reports whether v (or its base) is a time-annotation variable.
func (q *Query) IsTimestamp(v Var) bool {
	base := v.Base()
	for _, s := range q.Timestamps {
		if s == v || s == base {
			return true
		}
	}
	return false
}

// IsConjunctive reports whether the query is a plain conjunctive query:
// no filters, no aggregation and no time annotations.
func (q *Query) IsConjunctive() bool {
	return len(q.Filters) == 0 && !q.Aggregate && len(q.Timestamps) == 0
}

// PatternVars returns the distinct pattern variables in first-appearance order.
func (q *Query) PatternVars() []Var {
	set := NewOrderedSet[Var]()
	for _, t := range q.Pattern {
		for _, term := range t.Terms() {
			if v, ok := IsVar(term); ok {
				set.Add(v)
			}
		}
	}
	return set.Items()
}

// SelectableVars returns the pattern variables without timestamp variables.
func (q *Query) SelectableVars() []Var {
	var vars []Var
	for _, v := range q.PatternVars() {
		if !q.IsTimestamp(v) {
			vars = append(vars, v)
		}
	}
	return vars
}

// Clone returns a deep copy. Terms are immutable values and are shared.
func (q *Query) Clone() *Query {
	c := &Query{
		Prefix:     q.Prefix,
		Select:     append([]Var(nil), q.Select...),
		Pattern:    append([]Triple(nil), q.Pattern...),
		Filters:    append([]Filter(nil), q.Filters...),
		Joins:      append([]JoinPair(nil), q.Joins...),
		Aggregate:  q.Aggregate,
		Timestamps: append([]Var(nil), q.Timestamps...),
		Source:     q.Source,
	}
	if q.VarTypes != nil {
		c.VarTypes = make(map[Var]VarType, len(q.VarTypes))
		for k, v := range q.VarTypes {
			c.VarTypes[k] = v
		}
	}
	return c
}

// String renders the query in the SPARQL subset accepted by package parser.
// Joins are rendered as a trailing comment since they are derived.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT")
	for _, v := range q.Select {
		b.WriteString(" ")
		b.WriteString(v.String())
	}
	b.WriteString(" WHERE {")
	for i, t := range q.Pattern {
		if i > 0 {
			b.WriteString(" .")
		}
		b.WriteString(" ")
		b.WriteString(t.String())
	}
	for _, f := range q.Filters {
		b.WriteString(" FILTER(")
		b.WriteString(f.String())
		b.WriteString(")")
	}
	b.WriteString(" }")
	if len(q.Joins) > 0 {
		parts := make([]string, len(q.Joins))
		for i, j := range q.Joins {
			parts[i] = j.String()
		}
		b.WriteString(" # joins: ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}
