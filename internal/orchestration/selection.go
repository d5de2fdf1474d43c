package orchestration

import "github.com/agbru/primecount/internal/primes"

// GetCountersToRun resolves the algorithm selection into counters. "all"
// returns every registered counter in sorted key order; an unknown name
// returns nil.
//
// Parameters:
//   - algo: A registered key such as "sieve", or "all".
//   - factory: The factory to resolve counters from.
//
// Returns:
//   - []primes.Counter: The counters to execute.
func GetCountersToRun(algo string, factory primes.CounterFactory) []primes.Counter {
	if algo == "all" {
		keys := factory.List()
		counters := make([]primes.Counter, 0, len(keys))
		for _, k := range keys {
			if c, err := factory.Get(k); err == nil {
				counters = append(counters, c)
			}
		}
		return counters
	}
	if c, err := factory.Get(algo); err == nil {
		return []primes.Counter{c}
	}
	return nil
}
