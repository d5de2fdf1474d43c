// Package calibration measures the job count that counts a reference range
// fastest on the current machine and caches it in a profile.
package calibration

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/metrics"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
	"github.com/agbru/primecount/internal/sysmon"
)

// CalibrationRange is the reference range measured for each candidate.
var CalibrationRange = primes.Range{Low: 0, High: 2_000_000}

// preferredCounter is the counter calibrated when it is registered; it is
// the default algorithm of the command line.
const preferredCounter = "sqrt"

// ProgressDisplayFunc renders progress updates until the channel is closed
// and then calls wg.Done.
type ProgressDisplayFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer)

type calibrationResult struct {
	Jobs     int
	Duration time.Duration
	Count    uint64
	Err      error
}

// RunCalibration measures every job candidate on CalibrationRange, prints a
// summary and saves the fastest job count to profilePath.
//
// Parameters:
//   - ctx: Cancels the measurements.
//   - out: Receives progress and the summary.
//   - counters: The registered counters, by key.
//   - profilePath: Where the profile is written; empty selects the default.
//   - display: Renders progress; nil disables it.
//   - colors: Colors for error reporting.
//
// Returns:
//   - int: The process exit code.
func RunCalibration(ctx context.Context, out io.Writer, counters map[string]primes.Counter, profilePath string, display ProgressDisplayFunc, colors apperrors.ColorProvider) int {
	key, counter := pickCounter(counters)
	if counter == nil {
		fmt.Fprintln(out, "Calibration failed: no counter is registered.")
		return apperrors.ExitErrorConfig
	}
	if profilePath == "" {
		profilePath = GetDefaultProfilePath()
	}
	if colors == nil {
		colors = noColors{}
	}

	candidates := GenerateJobCandidates()
	fmt.Fprintf(out, "--- Calibration ---\n")
	printHost(out, sysmon.Host(ctx))
	fmt.Fprintf(out, "Measuring %d job counts with %s on %s.\n", len(candidates), counter.Name(), CalibrationRange)

	progressChan := make(chan progress.ProgressUpdate, len(candidates)+1)
	var wg sync.WaitGroup
	if display != nil {
		wg.Add(1)
		go display(&wg, progressChan, 1, out)
	}

	start := time.Now()
	results := calibrate(ctx, counter, CalibrationRange, candidates, progress.ChannelReporter(progressChan, 0))
	close(progressChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return apperrors.HandleCalculationError(err, time.Since(start), out, colors)
	}
	if err := checkConsistency(results); err != nil {
		fmt.Fprintf(out, "%sCalibration failed%s: %v\n", colors.Red(), colors.Reset(), err)
		return apperrors.ExitErrorMismatch
	}
	best, ok := bestResult(results)
	if !ok {
		fmt.Fprintf(out, "%sCalibration failed%s: every measurement failed.\n", colors.Red(), colors.Reset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, best.Jobs)

	profile := NewProfile()
	profile.OptimalJobs = best.Jobs
	profile.CalibrationAlgo = key
	profile.CalibrationLow = CalibrationRange.Low
	profile.CalibrationHigh = CalibrationRange.High
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
	if err := profile.SaveProfile(profilePath); err != nil {
		fmt.Fprintf(out, "%sWarning%s: %v\n", colors.Yellow(), colors.Reset(), err)
		return apperrors.ExitErrorGeneric
	}
	printCalibrationOutput(out, profile, profilePath)
	return apperrors.ExitSuccess
}

// calibrate counts r once per candidate, sequentially, so that the
// measurements do not compete for cores.
func calibrate(ctx context.Context, counter primes.Counter, r primes.Range, candidates []int, report progress.ProgressCallback) []calibrationResult {
	results := make([]calibrationResult, 0, len(candidates))
	mc := metrics.NewMemoryCollector()
	for i, jobs := range candidates {
		if ctx.Err() != nil {
			break
		}
		run, err := mc.Measure(r.Span(), func() (uint64, error) {
			return parallel.CountInRangeParallel(ctx, r.Low, r.High, jobs, parallel.Options{Counter: counter})
		})
		results = append(results, calibrationResult{Jobs: jobs, Duration: run.Duration, Count: run.Primes, Err: err})
		if report != nil {
			report(float64(i+1) / float64(len(candidates)))
		}
	}
	return results
}

func pickCounter(counters map[string]primes.Counter) (string, primes.Counter) {
	if c, ok := counters[preferredCounter]; ok {
		return preferredCounter, c
	}
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)
	return keys[0], counters[keys[0]]
}

// checkConsistency verifies that every successful measurement counted the
// same number of primes.
func checkConsistency(results []calibrationResult) error {
	var totals []uint64
	for _, res := range results {
		if res.Err == nil && !slices.Contains(totals, res.Count) {
			totals = append(totals, res.Count)
		}
	}
	if len(totals) > 1 {
		return fmt.Errorf("job counts disagree on the number of primes: %v", totals)
	}
	return nil
}

// bestResult returns the fastest successful measurement. Ties go to the
// smaller job count.
func bestResult(results []calibrationResult) (calibrationResult, bool) {
	var best calibrationResult
	found := false
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if !found || res.Duration < best.Duration || (res.Duration == best.Duration && res.Jobs < best.Jobs) {
			best, found = res, true
		}
	}
	return best, found
}

type noColors struct{}

func (noColors) Red() string    { return "" }
func (noColors) Yellow() string { return "" }
func (noColors) Reset() string  { return "" }
