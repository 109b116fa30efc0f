package policy

import "github.com/roach88/polcheck/internal/ir"

// Rename rewrites every variable v of q to prefix+v and records prefix as
// the query identity. Pattern, filters, projection, timestamps, joins and
// var types are all rewritten.
func Rename(q *ir.Query, prefix string) {
	rv := func(v ir.Var) ir.Var { return ir.Var(prefix + string(v)) }
	rt := func(t ir.Term) ir.Term {
		if v, ok := ir.IsVar(t); ok {
			return rv(v)
		}
		return t
	}

	for i, v := range q.Select {
		q.Select[i] = rv(v)
	}
	for i, t := range q.Pattern {
		q.Pattern[i] = ir.Triple{
			Subject:   rt(t.Subject),
			Predicate: rt(t.Predicate),
			Object:    rt(t.Object),
		}
	}
	for i, f := range q.Filters {
		q.Filters[i] = ir.Filter{Left: rt(f.Left), Op: f.Op, Right: rt(f.Right)}
	}
	for i, j := range q.Joins {
		q.Joins[i] = ir.NewJoinPair(rv(j.Left), rv(j.Right))
	}
	for i, v := range q.Timestamps {
		q.Timestamps[i] = rv(v)
	}
	if q.VarTypes != nil {
		renamed := make(map[ir.Var]ir.VarType, len(q.VarTypes))
		for v, typ := range q.VarTypes {
			renamed[rv(v)] = typ
		}
		q.VarTypes = renamed
	}
	q.Prefix = prefix
}

// Substitute rewrites the variables of q's filters and joins through subst.
// Operands absent from subst are left unchanged. Joins that become reflexive
// or duplicate an earlier pair are dropped.
func Substitute(q *ir.Query, subst map[ir.Var]ir.Var) {
	sv := func(v ir.Var) ir.Var {
		if to, ok := subst[v]; ok {
			return to
		}
		return v
	}
	st := func(t ir.Term) ir.Term {
		if v, ok := ir.IsVar(t); ok {
			return sv(v)
		}
		return t
	}

	for i, f := range q.Filters {
		q.Filters[i] = ir.Filter{Left: st(f.Left), Op: f.Op, Right: st(f.Right)}
	}

	seen := ir.NewOrderedSet[ir.JoinPair]()
	for _, j := range q.Joins {
		p := ir.NewJoinPair(sv(j.Left), sv(j.Right))
		if p.Reflexive() {
			continue
		}
		seen.Add(p)
	}
	q.Joins = seen.Items()
}
