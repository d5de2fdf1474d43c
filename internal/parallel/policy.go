package parallel

import (
	"strings"

	apperrors "github.com/agbru/primecount/internal/errors"
)

// Policy selects how the aggregator reacts to a failing worker.
type Policy int

const (
	// FailFast cancels sibling workers on the first failure and returns no
	// partial sum.
	FailFast Policy = iota
	// BestEffort lets every worker finish and returns the sum of the
	// successful parts alongside the failures.
	BestEffort
)

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case BestEffort:
		return "best-effort"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a flag value into a Policy. Matching ignores case.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail-fast", "failfast":
		return FailFast, nil
	case "best-effort", "besteffort":
		return BestEffort, nil
	default:
		return FailFast, apperrors.ValidationError{Field: "policy", Message: "must be fail-fast or best-effort, got " + s}
	}
}
