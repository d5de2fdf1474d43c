package orchestration

import (
	"time"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/progress"
)

// ProgressAggregator folds the updates of several counters into a single
// average with an ETA. Both the CLI spinner and the TUI consume it.
type ProgressAggregator struct {
	state       *format.ProgressWithETA
	numCounters int
}

// NewProgressAggregator creates an aggregator for numCounters counters.
// Returns nil if numCounters <= 0.
func NewProgressAggregator(numCounters int) *ProgressAggregator {
	if numCounters <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:       format.NewProgressWithETA(numCounters),
		numCounters: numCounters,
	}
}

// AggregatedProgress is the view of the run after one update.
type AggregatedProgress struct {
	// CounterIndex is the index of the counter that sent the update.
	CounterIndex int
	// Value is the raw progress of that counter (0.0 to 1.0).
	Value float64
	// AverageProgress is the mean across all counters.
	AverageProgress float64
	// ETA is the estimated time remaining based on the smoothed rate.
	ETA time.Duration
}

// Update applies one progress update.
func (a *ProgressAggregator) Update(update progress.ProgressUpdate) AggregatedProgress {
	avgProgress, eta := a.state.UpdateWithETA(update.CounterIndex, update.Value)
	return AggregatedProgress{
		CounterIndex:    update.CounterIndex,
		Value:           update.Value,
		AverageProgress: avgProgress,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// IsMultiCounter reports whether more than one counter is tracked.
func (a *ProgressAggregator) IsMultiCounter() bool {
	return a.numCounters > 1
}

// DrainChannel discards every update until the channel is closed.
func DrainChannel(progressChan <-chan progress.ProgressUpdate) {
	for range progressChan {
	}
}
