package policy

import (
	"strings"

	"github.com/roach88/polcheck/internal/ir"
)

// Union merges b into a copy of a. Patterns, filters and joins are
// concatenated without renaming or deduplication. Projection and
// timestamps are ordered-set unions, Aggregate is or-ed and the prefix is
// the "+" join of the non-empty prefixes. Neither input is modified.
//
// Union is associative and the empty query is a left identity.
func Union(a, b *ir.Query) *ir.Query {
	out := a.Clone()
	out.Pattern = append(out.Pattern, b.Pattern...)
	out.Filters = append(out.Filters, b.Filters...)
	out.Joins = append(out.Joins, b.Joins...)
	out.Select = orderedUnion(out.Select, b.Select)
	out.Timestamps = orderedUnion(out.Timestamps, b.Timestamps)
	out.Aggregate = a.Aggregate || b.Aggregate
	out.Prefix = joinPrefix(a.Prefix, b.Prefix)
	out.Source = ""

	if len(b.VarTypes) > 0 {
		if out.VarTypes == nil {
			out.VarTypes = make(map[ir.Var]ir.VarType, len(b.VarTypes))
		}
		for v, typ := range b.VarTypes {
			if _, ok := out.VarTypes[v]; !ok {
				out.VarTypes[v] = typ
			}
		}
	}
	return out
}

// UnionAll folds qs left to right starting from the empty query.
func UnionAll(qs ...*ir.Query) *ir.Query {
	out := &ir.Query{}
	for _, q := range qs {
		out = Union(out, q)
	}
	return out
}

func orderedUnion(a, b []ir.Var) []ir.Var {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := ir.NewOrderedSet(a...)
	for _, v := range b {
		set.Add(v)
	}
	return set.Items()
}

func joinPrefix(a, b string) string {
	var parts []string
	for _, p := range []string{a, b} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "+")
}
