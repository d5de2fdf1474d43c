package primes

import (
	"context"
)

// IsPrime reports whether n is prime.
//
// Values below 2 are not prime, 2 and 3 are. Every other prime has the form
// 6k±1, so anything else is rejected without division. The remaining
// candidates are trial-divided by the odd integers in [3, n/3).
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n == 2 || n == 3 {
		return true
	}
	if !isSixKNeighbour(n) {
		return false
	}
	prime, _ := trialDivide(context.Background(), n)
	return prime
}

// IsPrimeSqrt is IsPrime with the divisor bound lowered to floor(sqrt(n)).
// It gives the same answers and is the variant to use for large n.
func IsPrimeSqrt(n uint64) bool {
	if n < 2 {
		return false
	}
	if n == 2 || n == 3 {
		return true
	}
	if !isSixKNeighbour(n) {
		return false
	}
	prime, _ := sqrtDivide(context.Background(), n)
	return prime
}

// CountInRange returns the number of primes in [low, high].
// It fails with an error matching apperrors.ErrInvalidRange when low > high.
func CountInRange(low, high uint64) (uint64, error) {
	r, err := NewRange(low, high)
	if err != nil {
		return 0, err
	}
	return countSixK(context.Background(), r, trialDivide)
}

func isSixKNeighbour(n uint64) bool {
	return (n-1)%6 == 0 || (n+1)%6 == 0
}

// divisionTest reports whether a 6k±1 candidate is prime. It returns
// ctx.Err() when the context ends before the answer is known.
type divisionTest func(ctx context.Context, n uint64) (bool, error)

// trialDivide is the division core shared by IsPrime and the trial walk.
// n must be of the form 6k±1 and at least 5. A single large candidate can
// take minutes under the n/3 bound, so ctx is polled every
// divisorCheckInterval divisors.
func trialDivide(ctx context.Context, n uint64) (bool, error) {
	bound := n / 3
	var step uint64
	for d := uint64(3); d < bound; d += 2 {
		if n%d == 0 {
			return false, nil
		}
		if step++; step%divisorCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// sqrtDivide tests the 6k±1 divisors up to floor(sqrt(n)).
// d <= n/d avoids the overflow of d*d near 2^64.
func sqrtDivide(ctx context.Context, n uint64) (bool, error) {
	var step uint64
	for d := uint64(5); d <= n/d; d += 6 {
		if n%d == 0 || n%(d+2) == 0 {
			return false, nil
		}
		if step++; step%divisorCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// countSixK counts 2 and 3 when they fall in r, then walks the multiples of
// six from the one at or below r.Low (6 when r.Low < 6) and tests i-1 and i+1.
// The walk continues while i-1 <= r.High so that a range ending at 5 still
// sees 5.
func countSixK(ctx context.Context, r Range, test divisionTest) (uint64, error) {
	var primes uint64
	if r.Contains(2) {
		primes++
	}
	if r.Contains(3) {
		primes++
	}

	i := uint64(6)
	if r.Low >= 6 {
		i = r.Low / 6 * 6
	}
	for step := 0; i-1 <= r.High; step++ {
		if step%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if j := i - 1; j >= r.Low {
			prime, err := test(ctx, j)
			if err != nil {
				return 0, err
			}
			if prime {
				primes++
			}
		}
		if k := i + 1; k >= r.Low && k <= r.High {
			prime, err := test(ctx, k)
			if err != nil {
				return 0, err
			}
			if prime {
				primes++
			}
		}
		// MaxUint64 is 3 mod 6, so i+5 <= High never reaches it and i+6 cannot wrap.
		if r.High-(i-1) < 6 {
			break
		}
		i += 6
	}
	return primes, nil
}
