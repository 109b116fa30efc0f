package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/polcheck/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	pattern := []ir.Triple{{Subject: ir.Var("x"), Predicate: ir.IRILiteral("urn:age"), Object: ir.Var("y")}}

	tests := []struct {
		name  string
		query ir.Query
		want  []string
	}{
		{
			name:  "valid",
			query: ir.Query{Select: []ir.Var{"x"}, Pattern: pattern},
			want:  []string{},
		},
		{
			name:  "empty pattern",
			query: ir.Query{Select: []ir.Var{"x"}},
			want:  []string{ErrEmptyPattern, ErrUnboundProjection},
		},
		{
			name:  "no projection",
			query: ir.Query{Pattern: pattern},
			want:  []string{ErrNoProjection},
		},
		{
			name:  "duplicate projection",
			query: ir.Query{Select: []ir.Var{"x", "x"}, Pattern: pattern},
			want:  []string{ErrDuplicateProjection},
		},
		{
			name:  "unbound timestamp",
			query: ir.Query{Select: []ir.Var{"x"}, Pattern: pattern, Timestamps: []ir.Var{"t"}},
			want:  []string{ErrUnboundTimestamp},
		},
		{
			name: "unbound filter variable",
			query: ir.Query{Select: []ir.Var{"x"}, Pattern: pattern, Filters: []ir.Filter{
				{Left: ir.Var("z"), Op: ir.OpLt, Right: ir.Var("y")},
			}},
			want: []string{ErrUnboundFilterVar},
		},
		{
			name: "missing operand",
			query: ir.Query{Select: []ir.Var{"x"}, Pattern: pattern, Filters: []ir.Filter{
				{Left: ir.Var("y"), Op: ir.OpLt},
			}},
			want: []string{ErrMissingOperand},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(&tt.query)))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "select[0]", Message: "unbound", Code: ErrUnboundProjection}
	assert.Equal(t, "[E102] select[0]: unbound", err.Error())
}
