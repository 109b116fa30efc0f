package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is wrapped by every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// ValidationResult lists every problem found in a Select.
type ValidationResult struct {
	// Problems is empty for a valid query.
	Problems []string
}

// Valid reports whether no problems were found.
func (r ValidationResult) Valid() bool {
	return len(r.Problems) == 0
}

// Err returns nil for a valid query, otherwise an error wrapping
// ErrInvalidQuery with every problem.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(r.Problems, "; "))
}

// Validate checks the rules every backend relies on:
//  1. Graph is set
//  2. Where has at least one pattern and no nil terms
//  3. Every projected variable is bound by some pattern
//  4. No variable is projected twice
//
// Validate is a pure function with no side effects.
func Validate(sel Select) ValidationResult {
	v := &validator{}
	v.validateSelect(sel)
	return ValidationResult{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(sel Select) {
	if sel.Graph == "" {
		v.addProblem("missing graph id")
	}
	if len(sel.Where) == 0 {
		v.addProblem("empty graph pattern")
	}

	bound := make(map[Var]bool)
	for i, p := range sel.Where {
		for pos, t := range p.Terms() {
			switch term := t.(type) {
			case Var:
				bound[term] = true
			case Const:
			case nil:
				v.addProblem("pattern %d position %d: nil term", i+1, pos+1)
			default:
				v.addProblem("pattern %d position %d: unknown term type %T", i+1, pos+1, t)
			}
		}
	}

	projected := make(map[Var]bool)
	for _, p := range sel.Project {
		if !bound[p] {
			v.addProblem("projected variable %s is not bound by the pattern", p)
		}
		if projected[p] {
			v.addProblem("variable %s projected twice", p)
		}
		projected[p] = true
	}
}
