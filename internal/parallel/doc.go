// Package parallel counts primes over a range by fanning sub-ranges out to
// worker goroutines and reducing their partial counts.
//
// Each worker owns one result slot; the coordinating goroutine sums the slots
// only after every worker has returned, so no shared counter is mutated on
// the hot path. Worker panics are recovered and reported as
// apperrors.WorkerError values, and the Policy decides whether a failure
// cancels the remaining workers (FailFast) or lets them finish (BestEffort).
package parallel
