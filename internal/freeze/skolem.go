package freeze

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/polcheck/internal/ir"
)

// Tag classifies a bound value.
type Tag int

const (
	// Genuine values are data constants, not produced by freezing.
	Genuine Tag = iota
	// Output Skolems stand in for projected variables.
	Output
	// Internal Skolems stand in for every other variable.
	Internal
)

func (t Tag) String() string {
	switch t {
	case Genuine:
		return "genuine"
	case Output:
		return "output"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Wire format markers.
const (
	skolemPrefix = "_:"
	tagOffset    = len(skolemPrefix)
	outputMark   = 'o'
	internalMark = 'i'
)

// Skolem is a fresh constant standing in for one variable of one freeze.
type Skolem struct {
	Text string
	Var  ir.Var
	Tag  Tag
}

// NewSkolem builds the wire text for v at the given generation.
func NewSkolem(v ir.Var, tag Tag, generation uint64) Skolem {
	mark := internalMark
	if tag == Output {
		mark = outputMark
	}
	text := skolemPrefix + string(mark) + strconv.FormatUint(generation, 10) + "." + string(v)
	return Skolem{Text: text, Var: v, Tag: tag}
}

// Value is one decoded binding from an evaluated row.
type Value struct {
	Text string
	Tag  Tag
}

// IsSkolem reports whether the value was manufactured by freezing.
func (v Value) IsSkolem() bool {
	return v.Tag != Genuine
}

// Decode classifies wire text by the mark at the tag offset.
func Decode(text string) Value {
	if len(text) > tagOffset && strings.HasPrefix(text, skolemPrefix) {
		switch text[tagOffset] {
		case outputMark:
			return Value{Text: text, Tag: Output}
		case internalMark:
			return Value{Text: text, Tag: Internal}
		}
	}
	return Value{Text: text, Tag: Genuine}
}

// DecodeRow decodes every cell of an evaluated row.
func DecodeRow(row []string) []Value {
	out := make([]Value, len(row))
	for i, cell := range row {
		out[i] = Decode(cell)
	}
	return out
}
