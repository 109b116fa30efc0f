package policy

import (
	"strconv"

	"github.com/roach88/polcheck/internal/ir"
)

// ExtractJoins replaces every repeated occurrence of a pattern variable by a
// fresh occurrence variable (v#2, v#3, ...) and records a join pair for every
// combination of the occurrence names. Pairs already present are not added
// again. Once a query has no repeated variable tokens, further calls are
// no-ops.
//
// Filters and the projection keep referring to the first occurrence; the
// occurrence variables inherit output and timestamp status through Var.Base.
func ExtractJoins(q *ir.Query) {
	used := ir.NewOrderedSet(q.PatternVars()...)
	occurrences := make(map[ir.Var][]ir.Var)
	var order []ir.Var

	fresh := func(v ir.Var) ir.Var {
		for n := len(occurrences[v]) + 1; ; n++ {
			name := ir.Var(string(v) + ir.OccurrenceSep + strconv.Itoa(n))
			if used.Add(name) {
				return name
			}
		}
	}

	split := func(t ir.Term) ir.Term {
		v, ok := ir.IsVar(t)
		if !ok {
			return t
		}
		if _, seen := occurrences[v]; !seen {
			occurrences[v] = []ir.Var{v}
			order = append(order, v)
			return v
		}
		name := fresh(v)
		occurrences[v] = append(occurrences[v], name)
		return name
	}

	for i, t := range q.Pattern {
		q.Pattern[i] = ir.Triple{
			Subject:   split(t.Subject),
			Predicate: split(t.Predicate),
			Object:    split(t.Object),
		}
	}

	joins := ir.NewOrderedSet(q.Joins...)
	for _, v := range order {
		names := occurrences[v]
		for i := 0; i < len(names); i++ {
			for k := i + 1; k < len(names); k++ {
				joins.Add(ir.NewJoinPair(names[i], names[k]))
			}
		}
	}
	q.Joins = joins.Items()
	if len(q.Joins) == 0 {
		q.Joins = nil
	}
}
