// Package typing assigns a semantic type to every variable that occurs in a
// filter or join, from the literals it is compared against.
//
// A variable compared directly with a literal takes the literal's kind.
// Types then flow across join pairs and variable-to-variable comparisons:
// all variables in one connected class share one type. A variable whose
// class never meets a literal is TypeUnknown. Int and float meeting in one
// class widen to float; any other conflict keeps the first type met.
package typing

import "github.com/roach88/polcheck/internal/ir"

// Infer returns the type of every variable in filters and joins.
// Deterministic; no query is evaluated.
func Infer(filters []ir.Filter, joins []ir.JoinPair) map[ir.Var]ir.VarType {
	vars := ir.NewOrderedSet[ir.Var]()
	direct := make(map[ir.Var]ir.VarType)
	uf := newUnionFind()

	for _, f := range filters {
		lv, lok := ir.IsVar(f.Left)
		rv, rok := ir.IsVar(f.Right)
		switch {
		case lok && rok:
			vars.Add(lv)
			vars.Add(rv)
			uf.union(lv, rv)
		case lok:
			vars.Add(lv)
			uf.add(lv)
			if lit, ok := f.Right.(ir.Literal); ok {
				direct[lv] = direct[lv].Merge(lit.Kind())
			}
		case rok:
			vars.Add(rv)
			uf.add(rv)
			if lit, ok := f.Left.(ir.Literal); ok {
				direct[rv] = direct[rv].Merge(lit.Kind())
			}
		}
	}
	for _, j := range joins {
		vars.Add(j.Left)
		vars.Add(j.Right)
		uf.union(j.Left, j.Right)
	}

	class := make(map[ir.Var]ir.VarType)
	for _, v := range vars.Items() {
		root := uf.find(v)
		class[root] = class[root].Merge(direct[v])
	}

	types := make(map[ir.Var]ir.VarType, vars.Len())
	for _, v := range vars.Items() {
		types[v] = class[uf.find(v)]
	}
	return types
}

// Annotate stores the inferred types of q's filters and joins in q.VarTypes.
func Annotate(q *ir.Query) {
	q.VarTypes = Infer(q.Filters, q.Joins)
}

// unionFind partitions variables. The root of a class is the member added
// first, so results never depend on map iteration.
type unionFind struct {
	parent map[ir.Var]ir.Var
	order  map[ir.Var]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[ir.Var]ir.Var),
		order:  make(map[ir.Var]int),
	}
}

func (u *unionFind) add(v ir.Var) {
	if _, ok := u.parent[v]; !ok {
		u.parent[v] = v
		u.order[v] = len(u.order)
	}
}

func (u *unionFind) find(v ir.Var) ir.Var {
	u.add(v)
	root := v
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[v] != root {
		next := u.parent[v]
		u.parent[v] = root
		v = next
	}
	return root
}

func (u *unionFind) union(a, b ir.Var) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.order[rb] < u.order[ra] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
