// Package encoding translates filters and joins into a finite-domain
// constraint problem.
//
// Variables and constants are partitioned into typed buckets (int, string,
// float, timestamp) plus one bucket for variables of unknown type. Within a
// typed bucket holding k distinct constants and m variables, constants are
// sorted and spaced m+1 slots apart with m free slots before the first:
//
//	m=2, k=2:   _ _ c0 _ _ c1 _ _
//
// so any relative order of the m variables against the constants and each
// other is representable. Buckets occupy disjoint integer ranges, laid out
// in the order above.
package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/polcheck/internal/csp"
	"github.com/roach88/polcheck/internal/ir"
)

// ErrDomainTooLarge is returned when a bucket's domain exceeds the cap.
var ErrDomainTooLarge = errors.New("constraint domain too large")

// bucketOrder is the layout order of buckets on the integer line.
var bucketOrder = []ir.VarType{ir.TypeInt, ir.TypeString, ir.TypeFloat, ir.TypeTimestamp, ir.TypeUnknown}

// Options bounds an encoding.
type Options struct {
	// MaxDomain caps the size of any single bucket domain. Zero means no cap.
	MaxDomain int
}

// Bucket is one typed partition of the encoding.
type Bucket struct {
	Kind      ir.VarType
	Vars      []ir.Var
	Constants []ir.Literal
	Domain    csp.Domain
	slots     map[string]int
}

// Slot returns the integer encoding of a constant of this bucket.
func (b *Bucket) Slot(l ir.Literal) (int, bool) {
	s, ok := b.slots[l.Key()]
	return s, ok
}

// Encoding is the constraint problem for one set of filters and joins.
type Encoding struct {
	Buckets    []*Bucket
	Constraint csp.Expr

	names  map[ir.Var]string
	order  []ir.Var
	bucket map[ir.Var]*Bucket
}

// Name returns the solver variable name of v.
func (e *Encoding) Name(v ir.Var) (string, bool) {
	n, ok := e.names[v]
	return n, ok
}

// Vars returns the encoded variables in first-appearance order.
func (e *Encoding) Vars() []ir.Var {
	return append([]ir.Var(nil), e.order...)
}

// Problem registers one domain per variable and installs the constraint.
func (e *Encoding) Problem(opts ...csp.Option) *csp.Problem {
	p := csp.NewProblem(opts...)
	for _, v := range e.order {
		p.AddVariable(e.names[v], e.bucket[v].Domain)
	}
	p.AddConstraint(e.Constraint)
	return p
}

// String renders buckets and the constraint, one item per line.
func (e *Encoding) String() string {
	var b strings.Builder
	for _, bk := range e.Buckets {
		fmt.Fprintf(&b, "%s domain %s\n", bk.Kind, bk.Domain)
		for _, c := range bk.Constants {
			fmt.Fprintf(&b, "  %s -> %d\n", c.Key(), bk.slots[c.Key()])
		}
		for _, v := range bk.Vars {
			fmt.Fprintf(&b, "  %s as %s\n", v, e.names[v])
		}
	}
	fmt.Fprintf(&b, "constraint %s\n", e.Constraint)
	return b.String()
}

// operand is a filter side after normalization: a variable, or a literal
// converted into the bucket it is compared in.
type operand struct {
	v     ir.Var
	isVar bool
	lit   ir.Literal
}

// Encode builds the encoding of filters and joins under types. Variables
// missing from types are unknown.
func Encode(filters []ir.Filter, joins []ir.JoinPair, types map[ir.Var]ir.VarType, opts Options) (*Encoding, error) {
	enc := &Encoding{
		names:  make(map[ir.Var]string),
		bucket: make(map[ir.Var]*Bucket),
	}
	buckets := make(map[ir.VarType]*Bucket, len(bucketOrder))
	for _, k := range bucketOrder {
		buckets[k] = &Bucket{Kind: k, slots: make(map[string]int)}
	}
	constSeen := make(map[ir.VarType]*ir.OrderedSet[string])
	for _, k := range bucketOrder {
		constSeen[k] = ir.NewOrderedSet[string]()
	}

	addVar := func(v ir.Var) {
		if _, ok := enc.names[v]; ok {
			return
		}
		enc.order = append(enc.order, v)
		enc.names[v] = "v" + strconv.Itoa(len(enc.order))
		b := buckets[types[v]]
		if b == nil {
			b = buckets[ir.TypeUnknown]
		}
		b.Vars = append(b.Vars, v)
		enc.bucket[v] = b
	}
	addConst := func(l ir.Literal) {
		b := buckets[l.Kind()]
		if constSeen[l.Kind()].Add(l.Key()) {
			b.Constants = append(b.Constants, l)
		}
	}

	// First pass: normalize operands and register buckets.
	type pending struct {
		left, right operand
		op          ir.Comparator
		folded      csp.Expr
	}
	var atoms []pending
	for _, f := range filters {
		l, r, folded := normalize(f, types)
		if folded != nil {
			atoms = append(atoms, pending{folded: folded})
			continue
		}
		for _, o := range []operand{l, r} {
			if o.isVar {
				addVar(o.v)
			} else {
				addConst(o.lit)
			}
		}
		atoms = append(atoms, pending{left: l, right: r, op: f.Op})
	}
	for _, j := range joins {
		addVar(j.Left)
		addVar(j.Right)
	}

	// Layout.
	begin := 0
	for _, k := range bucketOrder {
		b := buckets[k]
		m := len(b.Vars)
		if k == ir.TypeUnknown {
			if m == 0 {
				continue
			}
			b.Domain = csp.Domain{Lo: begin, Hi: begin + 2*m + 1}
		} else {
			if m == 0 && len(b.Constants) == 0 {
				continue
			}
			sortLiterals(b.Constants)
			for i, c := range b.Constants {
				b.slots[c.Key()] = begin + m + i*(m+1)
			}
			b.Domain = csp.Domain{Lo: begin, Hi: begin + len(b.Constants)*(m+1) + m}
		}
		if opts.MaxDomain > 0 && b.Domain.Size() > opts.MaxDomain {
			return nil, fmt.Errorf("%w: %s bucket needs %d values, limit %d",
				ErrDomainTooLarge, k, b.Domain.Size(), opts.MaxDomain)
		}
		enc.Buckets = append(enc.Buckets, b)
		begin = b.Domain.Hi
	}

	// Second pass: emit the conjunction.
	conj := csp.And{}
	for _, a := range atoms {
		if a.folded != nil {
			conj = append(conj, a.folded)
			continue
		}
		conj = append(conj, csp.Cmp{
			Left:  enc.cspOperand(a.left, buckets),
			Op:    cspOp(a.op),
			Right: enc.cspOperand(a.right, buckets),
		})
	}
	for _, j := range joins {
		conj = append(conj, csp.Cmp{
			Left:  csp.Var(enc.names[j.Left]),
			Op:    csp.Eq,
			Right: csp.Var(enc.names[j.Right]),
		})
	}
	enc.Constraint = conj
	return enc, nil
}

func (e *Encoding) cspOperand(o operand, buckets map[ir.VarType]*Bucket) csp.Operand {
	if o.isVar {
		return csp.Var(e.names[o.v])
	}
	return csp.Const(buckets[o.lit.Kind()].slots[o.lit.Key()])
}

// normalize converts the literal side of f into the bucket of the variable
// side. Comparisons that cannot be encoded, or that involve no variable,
// are folded to a Bool.
func normalize(f ir.Filter, types map[ir.Var]ir.VarType) (operand, operand, csp.Expr) {
	lv, lvar := ir.IsVar(f.Left)
	rv, rvar := ir.IsVar(f.Right)
	ll, _ := f.Left.(ir.Literal)
	rl, _ := f.Right.(ir.Literal)

	switch {
	case lvar && rvar:
		return operand{v: lv, isVar: true}, operand{v: rv, isVar: true}, nil
	case lvar && rl != nil:
		lit, ok := ir.ToKind(rl, types[lv])
		if !ok {
			return operand{}, operand{}, csp.Bool(false)
		}
		return operand{v: lv, isVar: true}, operand{lit: lit}, nil
	case rvar && ll != nil:
		lit, ok := ir.ToKind(ll, types[rv])
		if !ok {
			return operand{}, operand{}, csp.Bool(false)
		}
		return operand{lit: lit}, operand{v: rv, isVar: true}, nil
	case ll != nil && rl != nil:
		c, ok := ir.CompareLiterals(ll, rl)
		return operand{}, operand{}, csp.Bool(ok && f.Op.Holds(c))
	default:
		return operand{}, operand{}, csp.Bool(false)
	}
}

func sortLiterals(lits []ir.Literal) {
	sort.SliceStable(lits, func(i, j int) bool {
		c, _ := ir.CompareLiterals(lits[i], lits[j])
		return c < 0
	})
}

func cspOp(op ir.Comparator) csp.Op {
	switch op {
	case ir.OpEq:
		return csp.Eq
	case ir.OpNe:
		return csp.Ne
	case ir.OpLt:
		return csp.Lt
	case ir.OpLe:
		return csp.Le
	case ir.OpGt:
		return csp.Gt
	default:
		return csp.Ge
	}
}
