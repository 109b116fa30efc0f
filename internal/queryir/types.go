package queryir

import (
	"strings"

	"github.com/roach88/polcheck/internal/ir"
)

// Term is one position of a triple pattern.
//
// This is a sealed interface - only types in this package implement it.
type Term interface {
	termNode() // Marker method - seals interface to this package
	String() string
}

// Var is a pattern variable. Repeated variables join.
type Var string

func (Var) termNode() {}

func (v Var) String() string { return "?" + string(v) }

// Const is a ground wire text that must match exactly.
type Const string

func (Const) termNode() {}

func (c Const) String() string { return string(c) }

// Pattern is one triple pattern.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Terms returns the pattern positions in order.
func (p Pattern) Terms() [3]Term {
	return [3]Term{p.Subject, p.Predicate, p.Object}
}

// Select is a basic graph pattern query over one frozen graph.
//
// Semantics:
//
//	SELECT DISTINCT <project> WHERE { <where> } ORDER BY <project>
//
// Example:
//
//	Select{
//	  Graph:   "3f1c...-1",
//	  Where:   []Pattern{{Subject: Var("x"), Predicate: Const("<age>"), Object: Var("y")}},
//	  Project: []Var{"x", "y"},
//	}
type Select struct {
	Graph   string    // Frozen graph ID
	Where   []Pattern // Conjunctive triple patterns
	Project []Var     // Output columns in order
}

func (s Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT")
	for _, v := range s.Project {
		b.WriteString(" " + v.String())
	}
	b.WriteString(" WHERE {")
	for i, p := range s.Where {
		if i > 0 {
			b.WriteString(" .")
		}
		b.WriteString(" " + p.Subject.String() + " " + p.Predicate.String() + " " + p.Object.String())
	}
	b.WriteString(" }")
	return b.String()
}

// FromQuery builds a Select over graph from q's graph pattern. Variables
// stay variables, literals become constants by key. project lists the
// output columns.
func FromQuery(q *ir.Query, graph string, project []ir.Var) Select {
	term := func(t ir.Term) Term {
		if v, ok := ir.IsVar(t); ok {
			return Var(v)
		}
		if l, ok := t.(ir.Literal); ok {
			return Const(l.Key())
		}
		return nil
	}

	sel := Select{Graph: graph}
	for _, t := range q.Pattern {
		sel.Where = append(sel.Where, Pattern{
			Subject:   term(t.Subject),
			Predicate: term(t.Predicate),
			Object:    term(t.Object),
		})
	}
	for _, v := range project {
		sel.Project = append(sel.Project, Var(v))
	}
	return sel
}
