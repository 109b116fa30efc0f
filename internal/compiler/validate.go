package compiler

import (
	"fmt"

	"github.com/roach88/polcheck/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Pattern and projection errors (E100-E109)
	ErrEmptyPattern        = "E100" // at least one triple required
	ErrNoProjection        = "E101" // at least one projected variable required
	ErrUnboundProjection   = "E102" // projected variable not in pattern
	ErrDuplicateProjection = "E103" // variable projected twice

	// Annotation and filter errors (E110-E119)
	ErrUnboundTimestamp = "E110" // timestamp variable not in pattern
	ErrUnboundFilterVar = "E111" // filter variable not in pattern
	ErrMissingOperand   = "E112" // filter operand missing
)

// ValidationError represents a query validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a query for well-formedness.
// Returns all errors found (does not fail-fast).
func Validate(q *ir.Query) []ValidationError {
	var errs []ValidationError

	// E100: pattern must be non-empty
	if len(q.Pattern) == 0 {
		errs = append(errs, ValidationError{
			Field:   "where",
			Message: "graph pattern must contain at least one triple",
			Code:    ErrEmptyPattern,
		})
	}

	bound := make(map[ir.Var]bool)
	for _, v := range q.PatternVars() {
		bound[v] = true
	}

	// E101: projection must be non-empty
	if len(q.Select) == 0 {
		errs = append(errs, ValidationError{
			Field:   "select",
			Message: "at least one projected variable is required",
			Code:    ErrNoProjection,
		})
	}

	// E102/E103: projected variables are bound and distinct
	seen := make(map[ir.Var]bool)
	for i, v := range q.Select {
		field := fmt.Sprintf("select[%d]", i)
		if !bound[v] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("projected variable %s does not appear in the pattern", v),
				Code:    ErrUnboundProjection,
			})
		}
		if seen[v] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("variable %s is projected more than once", v),
				Code:    ErrDuplicateProjection,
			})
		}
		seen[v] = true
	}

	// E110: timestamp variables are bound
	for i, v := range q.Timestamps {
		if !bound[v] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("timestamps[%d]", i),
				Message: fmt.Sprintf("timestamp variable %s does not appear in the pattern", v),
				Code:    ErrUnboundTimestamp,
			})
		}
	}

	for i, f := range q.Filters {
		errs = append(errs, validateFilter(fmt.Sprintf("filter[%d]", i), f, bound)...)
	}

	return errs
}

func validateFilter(field string, f ir.Filter, bound map[ir.Var]bool) []ValidationError {
	var errs []ValidationError

	// E112: both operands present
	if f.Left == nil || f.Right == nil {
		return []ValidationError{{
			Field:   field,
			Message: "filter needs two operands",
			Code:    ErrMissingOperand,
		}}
	}

	for _, t := range []ir.Term{f.Left, f.Right} {
		v, ok := ir.IsVar(t)
		if !ok {
			continue
		}
		// E111: filter variables are bound
		if !bound[v] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("filter variable %s does not appear in the pattern", v),
				Code:    ErrUnboundFilterVar,
			})
		}
	}

	return errs
}
