package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while checking a policy.
//
// Runtime errors include:
//   - Quota exceeded: a constraint domain or solver search hit its cap
//   - Contract violation: a nil query, or a query the engine cannot check
//
// Errors from the evaluator or the parser are not RuntimeErrors; they are
// wrapped with %w and propagate unchanged.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Query names the privacy query being checked, if any.
	Query string

	// Details contains additional context.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates a domain or search cap was hit.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeContractViolation indicates the engine was handed a value it
	// cannot check.
	ErrCodeContractViolation RuntimeErrorCode = "CONTRACT_VIOLATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("%s: %s (query=%s)", e.Code, e.Message, e.Query)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	return false
}

// IsContractError returns true if the error is a contract violation.
func IsContractError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeContractViolation
	}
	return false
}

// NewContractError creates a RuntimeError for a contract violation.
func NewContractError(query, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeContractViolation,
		Message: message,
		Query:   query,
	}
}
