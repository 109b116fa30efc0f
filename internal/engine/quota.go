package engine

import (
	"errors"
	"strconv"

	"github.com/roach88/polcheck/internal/csp"
	"github.com/roach88/polcheck/internal/encoding"
)

// Default caps. A bucket domain grows with constants times variables and
// the search grows with the product of domains, so both are bounded.
const (
	DefaultMaxDomain      = 1 << 16
	DefaultMaxSearchNodes = 1 << 22
)

// Quota bounds the satisfiability stage of one privacy query.
// Zero fields mean no cap.
type Quota struct {
	// MaxDomain caps the size of every constraint bucket domain.
	MaxDomain int

	// MaxSearchNodes caps the nodes visited by one solver run.
	MaxSearchNodes int
}

// DefaultQuota returns the caps used when none are configured.
func DefaultQuota() Quota {
	return Quota{MaxDomain: DefaultMaxDomain, MaxSearchNodes: DefaultMaxSearchNodes}
}

// enforce turns a cap failure into a QUOTA_EXCEEDED RuntimeError.
// Other errors are returned unchanged.
func (q Quota) enforce(query string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrDomainTooLarge):
		return &RuntimeError{
			Code:    ErrCodeQuotaExceeded,
			Message: "constraint domain exceeds cap",
			Query:   query,
			Details: map[string]string{"max_domain": strconv.Itoa(q.MaxDomain)},
			Cause:   err,
		}
	case errors.Is(err, csp.ErrSearchLimit):
		return &RuntimeError{
			Code:    ErrCodeQuotaExceeded,
			Message: "constraint search exceeds cap",
			Query:   query,
			Details: map[string]string{"max_search_nodes": strconv.Itoa(q.MaxSearchNodes)},
			Cause:   err,
		}
	default:
		return err
	}
}
