package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
)

// CountResult is the outcome of one counter over the requested range.
// It is the shared domain type between orchestration and presentation layers.
type CountResult struct {
	// Name is the display name of the counter (e.g., "Segmented Sieve").
	Name string
	// Total is the number of primes found. Under the best-effort policy it
	// may be a partial sum when Err is non-nil.
	Total uint64
	// Duration is the wall time spent counting.
	Duration time.Duration
	// Err is non-nil when the count failed.
	Err error
}

// PresentationOptions configures how results are presented to the user.
type PresentationOptions struct {
	Range   primes.Range
	Jobs    int
	Verbose bool
	Details bool
}

// ProgressReporter defines the interface for displaying count progress.
// It keeps the orchestration layer independent of the presentation layer.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed.
	// It should be called in a separate goroutine.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving progress updates from counters.
	//   - numCounters: The number of concurrent counters being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer) {
	f(wg, progressChan, numCounters, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything. Used in quiet mode, by the server and in tests.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines how count results are shown. Implementations exist
// for the CLI and the TUI.
type ResultPresenter interface {
	// PresentComparisonTable displays the comparison summary table.
	PresentComparisonTable(results []CountResult, out io.Writer)

	// PresentResult displays the final result.
	PresentResult(result CountResult, opts PresentationOptions, out io.Writer)
}

// DurationFormatter formats durations for display.
type DurationFormatter interface {
	FormatDuration(d time.Duration) string
}

// ErrorHandler handles count errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}
