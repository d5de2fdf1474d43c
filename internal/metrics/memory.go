// Package metrics measures the runtime cost of a count: heap usage, garbage
// collection activity and throughput.
package metrics

import (
	"runtime"
	"time"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by the application
	HeapSys      uint64 // bytes obtained from the OS for the heap
	Sys          uint64 // total bytes obtained from the OS
	NumGC        uint32 // completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	HeapObjects  uint64 // allocated heap objects
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		HeapObjects:  m.HeapObjects,
	}
}

// RunReport summarizes one count for the details view.
type RunReport struct {
	// Integers is the number of integers examined, as a float so that the
	// full 2^64 range is representable.
	Integers float64
	Primes   uint64
	Duration time.Duration
	Before   MemorySnapshot
	After    MemorySnapshot
}

// Measure runs fn between two memory snapshots and times it. span is
// High-Low of the counted range.
func (mc *MemoryCollector) Measure(span uint64, fn func() (uint64, error)) (RunReport, error) {
	report := RunReport{Integers: float64(span) + 1, Before: mc.Snapshot()}
	start := time.Now()
	primes, err := fn()
	report.Duration = time.Since(start)
	report.Primes = primes
	report.After = mc.Snapshot()
	return report, err
}

// Throughput returns integers examined per second.
func (r RunReport) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return r.Integers / r.Duration.Seconds()
}

// Density returns the share of examined integers that are prime.
func (r RunReport) Density() float64 {
	if r.Integers == 0 {
		return 0
	}
	return float64(r.Primes) / r.Integers
}

// GCCycles returns the number of collections that ran during the count.
func (r RunReport) GCCycles() uint32 {
	return r.After.NumGC - r.Before.NumGC
}

// GCPause returns the GC pause time accumulated during the count.
func (r RunReport) GCPause() time.Duration {
	return time.Duration(r.After.PauseTotalNs - r.Before.PauseTotalNs)
}
