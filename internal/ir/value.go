package ir

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Term is a sealed interface for the components of triple patterns and
// filter operands. Only Var and the Literal types implement it.
type Term interface {
	term() // Sealed - only types in this package implement it
	String() string
}

// Var is a query variable. The name never carries the leading '?'.
type Var string

func (Var) term() {}

// String renders the variable in query syntax.
func (v Var) String() string {
	return "?" + string(v)
}

// OccurrenceSep separates a variable from its occurrence number in the
// names produced by join extraction (e.g. "PQ1x#2").
const OccurrenceSep = "#"

// Base returns the variable an occurrence variable was split from.
// Plain variables are their own base.
func (v Var) Base() Var {
	if i := strings.Index(string(v), OccurrenceSep); i >= 0 {
		return v[:i]
	}
	return v
}

// Literal is a sealed interface for typed constants (closed tagged union).
//
// Literal types:
//   - IntLiteral: xsd:integer
//   - FloatLiteral: xsd:decimal / xsd:double
//   - StringLiteral: plain string
//   - IRILiteral: resource identifier, typed as string for constraint encoding
//   - TimeLiteral: xsd:dateTime
type Literal interface {
	Term
	literal()

	// Kind returns the semantic type of the literal.
	Kind() VarType

	// Key returns the canonical wire text used in frozen graphs and for
	// deduplication. Equal literals have equal keys.
	Key() string
}

// IntLiteral is an integer constant.
type IntLiteral int64

func (IntLiteral) term()    {}
func (IntLiteral) literal() {}

func (IntLiteral) Kind() VarType { return TypeInt }

func (l IntLiteral) Key() string { return strconv.FormatInt(int64(l), 10) }

func (l IntLiteral) String() string { return l.Key() }

// FloatLiteral is a floating point constant.
type FloatLiteral float64

func (FloatLiteral) term()    {}
func (FloatLiteral) literal() {}

func (FloatLiteral) Kind() VarType { return TypeFloat }

// Key always carries a decimal point or exponent so that 30.0 never collides
// with the integer 30.
func (l FloatLiteral) Key() string {
	s := strconv.FormatFloat(float64(l), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func (l FloatLiteral) String() string { return l.Key() }

// StringLiteral is a plain string constant.
type StringLiteral string

func (StringLiteral) term()    {}
func (StringLiteral) literal() {}

func (StringLiteral) Kind() VarType { return TypeString }

func (l StringLiteral) Key() string {
	return strconv.Quote(norm.NFC.String(string(l)))
}

func (l StringLiteral) String() string { return l.Key() }

// IRILiteral is a resource identifier such as <http://example.org/age>.
type IRILiteral string

func (IRILiteral) term()    {}
func (IRILiteral) literal() {}

func (IRILiteral) Kind() VarType { return TypeString }

func (l IRILiteral) Key() string { return "<" + string(l) + ">" }

func (l IRILiteral) String() string { return l.Key() }

// TimeLiteral is a timestamp constant, held in UTC.
type TimeLiteral struct {
	time.Time
}

func (TimeLiteral) term()    {}
func (TimeLiteral) literal() {}

func (TimeLiteral) Kind() VarType { return TypeTimestamp }

func (l TimeLiteral) Key() string {
	return `"` + l.UTC().Format(time.RFC3339Nano) + `"^^xsd:dateTime`
}

func (l TimeLiteral) String() string { return l.Key() }

// NewTimeLiteral normalizes t to UTC.
func NewTimeLiteral(t time.Time) TimeLiteral {
	return TimeLiteral{Time: t.UTC()}
}

// IsVar reports whether t is a variable and returns it.
func IsVar(t Term) (Var, bool) {
	v, ok := t.(Var)
	return v, ok
}

// CompareLiterals orders two literals of the same kind.
// Returns -1, 0 or 1, and false when the literals are not comparable.
// Integers and floats compare numerically with each other.
func CompareLiterals(a, b Literal) (int, bool) {
	if af, aok := numeric(a); aok {
		bf, bok := numeric(b)
		if !bok {
			return 0, false
		}
		return compareOrdered(af, bf), true
	}

	switch av := a.(type) {
	case StringLiteral, IRILiteral:
		if b.Kind() != TypeString {
			return 0, false
		}
		return compareOrdered(lexical(av), lexical(b)), true
	case TimeLiteral:
		bv, ok := b.(TimeLiteral)
		if !ok {
			return 0, false
		}
		return av.Compare(bv.Time), true
	default:
		return 0, false
	}
}

// ToKind converts a literal into another kind when the conversion is
// lossless in the ordering sense (int -> float). The literal is returned
// unchanged when it already has that kind.
func ToKind(l Literal, kind VarType) (Literal, bool) {
	if l.Kind() == kind {
		return l, true
	}
	if iv, ok := l.(IntLiteral); ok && kind == TypeFloat {
		return FloatLiteral(float64(iv)), true
	}
	return nil, false
}

func numeric(l Literal) (float64, bool) {
	switch v := l.(type) {
	case IntLiteral:
		return float64(v), true
	case FloatLiteral:
		return float64(v), true
	default:
		return 0, false
	}
}

// lexical returns the comparison text of string-typed literals. IRIs and
// strings share one ordering space keyed on their wire text.
func lexical(l Literal) string {
	return l.Key()
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
