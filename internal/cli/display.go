package cli

import (
	"fmt"
	"io"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/metrics"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/sysmon"
	"github.com/agbru/primecount/internal/ui"
)

// DisplayResult prints the prime count of a successful run. With
// opts.Details it adds the density and throughput of the run together with
// process memory and system load; with opts.Verbose it adds the counter and
// job count.
func DisplayResult(result orchestration.CountResult, opts orchestration.PresentationOptions, out io.Writer) {
	fmt.Fprintf(out, "\n--- Result ---\n")
	fmt.Fprintf(out, "Primes in %s%s%s: %s%s%s\n",
		ui.ColorCyan(), opts.Range, ui.ColorReset(),
		ui.ColorBold(), format.FormatUint(result.Total), ui.ColorReset())
	fmt.Fprintf(out, "Counted in %s%s%s\n", ui.ColorYellow(), format.FormatExecutionDuration(result.Duration), ui.ColorReset())

	if opts.Verbose {
		fmt.Fprintf(out, "Counter: %s%s%s, jobs: %d\n", ui.ColorMagenta(), result.Name, ui.ColorReset(), opts.Jobs)
	}
	if opts.Details {
		report := metrics.RunReport{
			Integers: float64(opts.Range.Span()) + 1,
			Primes:   result.Total,
			Duration: result.Duration,
		}
		DisplayDetails(report, metrics.NewMemoryCollector().Snapshot(), sysmon.Sample(), out)
	}
}

// DisplayDetails prints the density, throughput, memory and system sections
// of the details view.
func DisplayDetails(report metrics.RunReport, mem metrics.MemorySnapshot, sys sysmon.Stats, out io.Writer) {
	fmt.Fprintf(out, "\n%sDetails%s\n", ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(out, "  Integers examined: %.0f\n", report.Integers)
	fmt.Fprintf(out, "  Prime density:     %.6f\n", report.Density())
	fmt.Fprintf(out, "  Throughput:        %s\n", format.FormatRate(report.Throughput()))
	DisplayMemoryStats(mem, out)
	fmt.Fprintf(out, "\nSystem:\n")
	fmt.Fprintf(out, "  CPU usage:         %.1f%%\n", sys.CPUPercent)
	fmt.Fprintf(out, "  Memory usage:      %.1f%%\n", sys.MemPercent)
}

// DisplayMemoryStats prints a process memory snapshot.
func DisplayMemoryStats(snap metrics.MemorySnapshot, out io.Writer) {
	fmt.Fprintf(out, "\nMemory:\n")
	fmt.Fprintf(out, "  Heap in use:       %s\n", format.FormatBytes(snap.HeapAlloc))
	fmt.Fprintf(out, "  Obtained from OS:  %s\n", format.FormatBytes(snap.Sys))
	fmt.Fprintf(out, "  GC cycles:         %d\n", snap.NumGC)
	fmt.Fprintf(out, "  GC pause total:    %.2fms\n", float64(snap.PauseTotalNs)/1e6)
}
