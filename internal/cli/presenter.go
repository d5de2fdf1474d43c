package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/progress"
	"github.com/agbru/primecount/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with the
// spinner display.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for ongoing counts.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer) {
	DisplayProgress(wg, progressChan, numCounters, out)
}

// CLIColorProvider supplies theme colors to apperrors.HandleCalculationError.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct{}

var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
	_ orchestration.ErrorHandler      = CLIResultPresenter{}
	_ apperrors.ColorProvider         = CLIColorProvider{}
)

// PresentComparisonTable prints one row per counter with its duration, total
// and status. Padding is computed on the visible text so that ANSI codes do
// not break the alignment.
func (CLIResultPresenter) PresentComparisonTable(results []orchestration.CountResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")

	nameW, durW, totalW := len("Counter"), len("Duration"), len("Primes")
	durations := make([]string, len(results))
	totals := make([]string, len(results))
	for i, res := range results {
		durations[i] = formatTableDuration(res.Duration)
		totals[i] = format.FormatUint(res.Total)
		if res.Err != nil && res.Total == 0 {
			totals[i] = "-"
		}
		nameW = max(nameW, len([]rune(res.Name)))
		durW = max(durW, len(durations[i]))
		totalW = max(totalW, len(totals[i]))
	}

	fmt.Fprintf(out, "%sCounter%s%s   %sDuration%s%s   %sPrimes%s%s   %sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), padRight("", nameW-len("Counter")),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", durW-len("Duration")),
		ui.ColorUnderline(), ui.ColorReset(), padRight("", totalW-len("Primes")),
		ui.ColorUnderline(), ui.ColorReset())

	for i, res := range results {
		status := fmt.Sprintf("%sOK%s", ui.ColorGreen(), ui.ColorReset())
		if res.Err != nil {
			status = fmt.Sprintf("%sFAILED (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		}
		fmt.Fprintf(out, "%s%s%s%s   %s%s%s%s   %s%s%s%s   %s\n",
			ui.ColorMagenta(), res.Name, ui.ColorReset(), padRight("", nameW-len([]rune(res.Name))),
			ui.ColorYellow(), durations[i], ui.ColorReset(), padRight("", durW-len(durations[i])),
			ui.ColorCyan(), totals[i], ui.ColorReset(), padRight("", totalW-len(totals[i])),
			status)
	}
}

func formatTableDuration(d time.Duration) string {
	if d == 0 {
		return "< 1µs"
	}
	return format.FormatExecutionDuration(d)
}

// padRight appends length spaces to s.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + fmt.Sprintf("%*s", length, "")
}

// PresentResult displays the final result.
func (CLIResultPresenter) PresentResult(result orchestration.CountResult, opts orchestration.PresentationOptions, out io.Writer) {
	DisplayResult(result, opts, out)
}

// FormatDuration formats a duration for display.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}

// HandleError prints the failure and returns the matching exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleCalculationError(err, duration, out, CLIColorProvider{})
}
