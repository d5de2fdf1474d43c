// Package primes implements sequential prime counting over closed uint64
// intervals.
//
// [IsPrime] and [CountInRange] are the reference operations: trial division
// restricted to candidates of the form 6k±1, with divisors bounded by n/3.
// The [Counter] interface generalizes counting so that alternative strategies
// (a square-root bounded walk and a segmented sieve) can be registered in a
// [Factory] and compared against each other.
package primes
