package primes

import (
	"fmt"

	apperrors "github.com/agbru/primecount/internal/errors"
)

// Range is an inclusive interval [Low, High] of candidate integers.
// A Range obtained from NewRange or ParseRange always satisfies Low <= High.
type Range struct {
	Low  uint64
	High uint64
}

// NewRange validates and returns [low, high].
func NewRange(low, high uint64) (Range, error) {
	if low > high {
		return Range{}, apperrors.RangeError{Low: clampInt64(low), High: clampInt64(high), Reason: "low exceeds high"}
	}
	return Range{Low: low, High: high}, nil
}

// ParseRange validates signed bounds, as received from flags or query
// strings, and converts them to a Range.
func ParseRange(low, high int64) (Range, error) {
	if low < 0 || high < 0 {
		return Range{}, apperrors.RangeError{Low: low, High: high, Reason: "bounds must be non-negative"}
	}
	if low > high {
		return Range{}, apperrors.RangeError{Low: low, High: high, Reason: "low exceeds high"}
	}
	return Range{Low: uint64(low), High: uint64(high)}, nil
}

// Contains reports whether n lies in the range.
func (r Range) Contains(n uint64) bool { return n >= r.Low && n <= r.High }

// Span returns High-Low, the number of integers in the range minus one.
// It never overflows, unlike the element count for [0, MaxUint64].
func (r Range) Span() uint64 { return r.High - r.Low }

func (r Range) String() string { return fmt.Sprintf("[%d, %d]", r.Low, r.High) }

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}
