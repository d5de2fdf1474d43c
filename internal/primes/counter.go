package primes

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/agbru/primecount/internal/errors"
)

// Counter counts the primes of a range. Implementations must be safe for
// concurrent use: the parallel aggregator calls one Counter from many
// goroutines, each with its own sub-range.
type Counter interface {
	// Name returns a human-readable algorithm name.
	Name() string
	// CountRange returns the number of primes in r. It returns ctx.Err() if
	// the context is canceled before the count completes.
	CountRange(ctx context.Context, r Range) (uint64, error)
}

// TrialDivision is the reference counter with the n/3 divisor bound.
type TrialDivision struct{}

// Name returns the algorithm name.
func (TrialDivision) Name() string { return "Trial Division (6k±1, n/3)" }

// CountRange counts the primes of r.
func (TrialDivision) CountRange(ctx context.Context, r Range) (uint64, error) {
	return countSixK(ctx, r, trialDivide)
}

// SqrtTrialDivision walks the same 6k±1 candidates but stops dividing at
// floor(sqrt(n)).
type SqrtTrialDivision struct{}

// Name returns the algorithm name.
func (SqrtTrialDivision) Name() string { return "Trial Division (6k±1, √n)" }

// CountRange counts the primes of r.
func (SqrtTrialDivision) CountRange(ctx context.Context, r Range) (uint64, error) {
	return countSixK(ctx, r, sqrtDivide)
}

// SegmentedSieve counts with a sieve of Eratosthenes applied segment by
// segment over the range, so memory stays proportional to SieveSegmentSize
// plus the base primes up to sqrt(High).
type SegmentedSieve struct{}

// Name returns the algorithm name.
func (SegmentedSieve) Name() string { return "Segmented Sieve" }

// CountRange counts the primes of r. Ranges ending above SieveMaxHigh are
// rejected with a validation error.
func (SegmentedSieve) CountRange(ctx context.Context, r Range) (uint64, error) {
	if r.High > SieveMaxHigh {
		return 0, apperrors.ValidationError{
			Field:   "high",
			Message: fmt.Sprintf("segmented sieve supports ranges up to %d", SieveMaxHigh),
		}
	}
	base := basePrimes(isqrt(r.High))

	var count uint64
	lo := r.Low
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		hi := r.High
		if hi-lo >= SieveSegmentSize {
			hi = lo + SieveSegmentSize - 1
		}
		count += countSegment(lo, hi, base)
		if hi == r.High {
			return count, nil
		}
		lo = hi + 1
	}
}

// countSegment counts the primes of [lo, hi] given every prime up to sqrt(hi).
func countSegment(lo, hi uint64, base []uint64) uint64 {
	composite := make([]bool, hi-lo+1)
	for _, p := range base {
		pp := p * p
		if pp > hi {
			break
		}
		start := pp
		if start < lo {
			start = lo - lo%p
			if start < lo {
				if hi-start < p {
					continue
				}
				start += p
			}
		}
		for m := start; ; m += p {
			composite[m-lo] = true
			if hi-m < p {
				break
			}
		}
	}

	var count uint64
	for i, c := range composite {
		if !c && lo+uint64(i) >= 2 {
			count++
		}
	}
	return count
}

// basePrimes returns the primes up to limit with a plain sieve.
func basePrimes(limit uint64) []uint64 {
	if limit < 2 {
		return nil
	}
	composite := make([]bool, limit+1)
	var out []uint64
	for i := uint64(2); i <= limit; i++ {
		if composite[i] {
			continue
		}
		out = append(out, i)
		for m := i * i; m <= limit; m += i {
			composite[m] = true
		}
	}
	return out
}

// isqrt returns floor(sqrt(n)) exactly.
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}
