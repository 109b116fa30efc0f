package csp

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator between two integer operands.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opText = [...]string{Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}

func (o Op) String() string {
	if int(o) < len(opText) {
		return opText[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Holds applies the operator.
func (o Op) Holds(a, b int) bool {
	switch o {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	default:
		return false
	}
}

// Operand is a sealed interface: Var or Const.
type Operand interface {
	operand()
	String() string
}

// Var names a registered variable.
type Var string

func (Var) operand()         {}
func (v Var) String() string { return string(v) }

// Const is a fixed integer.
type Const int

func (Const) operand()         {}
func (c Const) String() string { return strconv.Itoa(int(c)) }

// Expr is a sealed interface for constraint expressions.
type Expr interface {
	expr()
	String() string
}

// Cmp compares two operands.
type Cmp struct {
	Left  Operand
	Op    Op
	Right Operand
}

func (Cmp) expr() {}

func (c Cmp) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// And is a conjunction. The empty conjunction is true.
type And []Expr

func (And) expr() {}

func (a And) String() string {
	if len(a) == 0 {
		return "true"
	}
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = e.String()
	}
	return strings.Join(parts, " and ")
}

// Bool is a constant truth value.
type Bool bool

func (Bool) expr() {}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// flatten collects the atoms of e. ok is false when e contains Bool(false).
func flatten(e Expr, out []Cmp) ([]Cmp, bool, error) {
	switch x := e.(type) {
	case nil:
		return out, true, nil
	case Bool:
		return out, bool(x), nil
	case Cmp:
		if x.Left == nil || x.Right == nil {
			return nil, false, fmt.Errorf("csp: comparison with nil operand: %v", x.Op)
		}
		return append(out, x), true, nil
	case And:
		for _, sub := range x {
			var ok bool
			var err error
			out, ok, err = flatten(sub, out)
			if err != nil || !ok {
				return out, ok, err
			}
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("csp: unsupported expression %T", e)
	}
}
