package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/primecount/internal/config"
	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/ui"
)

// PrintExecutionConfig displays the range, job count, policy, timeout and
// environment of the run.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	r := cfg.Range()
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Counting primes in %s%s%s (%s integers) with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), r, ui.ColorReset(),
		format.FormatNumberString(fmt.Sprintf("%.0f", float64(r.Span())+1)),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	fmt.Fprintf(out, "Parallelism: %s%d%s jobs, %s%s%s policy.\n",
		ui.ColorCyan(), cfg.Jobs, ui.ColorReset(), ui.ColorCyan(), cfg.Policy, ui.ColorReset())
}

// PrintExecutionMode displays whether a single counter runs or several are
// compared.
//
// Parameters:
//   - counters: The counters that will be executed.
//   - out: The writer for standard output.
func PrintExecutionMode(counters []primes.Counter, out io.Writer) {
	var modeDesc string
	switch len(counters) {
	case 0:
		modeDesc = "no counter selected"
	case 1:
		modeDesc = fmt.Sprintf("single count with the %s%s%s counter",
			ui.ColorGreen(), counters[0].Name(), ui.ColorReset())
	default:
		modeDesc = fmt.Sprintf("parallel comparison of %d counters", len(counters))
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
