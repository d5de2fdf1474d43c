package primes

const (
	// ctxCheckInterval is the number of 6k steps between cancellation checks
	// in the trial-division walks.
	ctxCheckInterval = 256

	// divisorCheckInterval is the number of trial divisors tested between
	// cancellation checks inside a single candidate.
	divisorCheckInterval = 4096

	// SieveSegmentSize is the number of integers marked per sieve segment.
	// 64 Ki booleans fit comfortably in L2 on current hardware.
	SieveSegmentSize = 1 << 16

	// SieveMaxHigh bounds the upper end of a sieve range. The base primes up to
	// sqrt(SieveMaxHigh) are held in memory (about 32 MiB at this limit).
	SieveMaxHigh = uint64(1) << 50
)
