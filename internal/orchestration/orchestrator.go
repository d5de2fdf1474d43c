package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of dropping updates when
// the UI is slow to consume them.
const ProgressBufferMultiplier = 5

// CountRequest describes the work shared by every counter of a run.
type CountRequest struct {
	Range primes.Range
	Jobs  int
	// Options carries the policy, timeout and logger. Counter and Progress
	// are set per counter by ExecuteCounts.
	Options parallel.Options
}

// ExecuteCounts runs every counter over the same range concurrently, each
// through the parallel aggregator.
//
// It manages the lifecycle of the counting goroutines, collects their
// results and coordinates the display of progress updates. A failing counter
// does not cancel the others: each result carries its own error.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - counters: The counters to execute.
//   - req: The range, job count and aggregator options.
//   - progressReporter: The progress reporter (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []CountResult: One result per counter, in input order.
func ExecuteCounts(ctx context.Context, counters []primes.Counter, req CountRequest, progressReporter ProgressReporter, out io.Writer) []CountResult {
	var g errgroup.Group
	results := make([]CountResult, len(counters))
	progressChan := make(chan progress.ProgressUpdate, len(counters)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(counters), out)

	for i, counter := range counters {
		opts := req.Options
		opts.Counter = counter
		opts.Progress = progress.ChannelReporter(progressChan, i)
		g.Go(func() error {
			startTime := time.Now()
			total, err := parallel.CountInRangeParallel(ctx, req.Range.Low, req.Range.High, req.Jobs, opts)
			results[i] = CountResult{
				Name: counter.Name(), Total: total, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeComparisonResults processes the results from multiple counters and
// generates a summary report.
//
// It sorts the results by execution time, checks that all successful totals
// agree, and displays a comparative table.
//
// Parameters:
//   - results: The results to analyze. The slice is sorted in place.
//   - opts: Presentation settings for the final result.
//   - presenter: The result presenter for display formatting.
//   - errHandler: Maps the first error to an exit code when every counter failed.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparisonResults(results []CountResult, opts PresentationOptions, presenter ResultPresenter, errHandler ErrorHandler, out io.Writer) int {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})

	var firstValid *CountResult
	var firstError error
	successCount := 0
	for i := range results {
		if results[i].Err != nil {
			if firstError == nil {
				firstError = results[i].Err
			}
			continue
		}
		successCount++
		if firstValid == nil {
			firstValid = &results[i]
		}
	}

	presenter.PresentComparisonTable(results, out)

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No counter could complete the range.\n")
		return errHandler.HandleError(firstError, 0, out)
	}

	for _, res := range results {
		if res.Err == nil && res.Total != firstValid.Total {
			fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! The counters disagree on the number of primes.\n")
			return apperrors.ExitErrorMismatch
		}
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	presenter.PresentResult(*firstValid, opts, out)
	return apperrors.ExitSuccess
}
