package parser

import (
	"errors"
	"fmt"
)

// ErrNoQuery is returned for a document without any SELECT keyword.
var ErrNoQuery = errors.New("no SELECT in document")

// Pos is a 1-based line and column.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// SyntaxError is a lexing or parsing failure at a position.
type SyntaxError struct {
	Err error
	Pos Pos
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %s", e.Err.Error(), e.Pos)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func expectedErr(what string, got token) error {
	return &SyntaxError{Err: fmt.Errorf("expected %s, found %s", what, got.describe()), Pos: got.pos}
}

func unsupportedErr(what string, at token) error {
	return &SyntaxError{Err: fmt.Errorf("%s is not supported", what), Pos: at.pos}
}
