package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/sysmon"
	"github.com/agbru/primecount/internal/ui"
)

// printHost prints the machine being calibrated. Unknown fields are skipped.
func printHost(out io.Writer, h sysmon.HostInfo) {
	if h.ModelName != "" {
		fmt.Fprintf(out, "Host: %s\n", h.ModelName)
	}
	if h.LogicalCores > 0 {
		fmt.Fprintf(out, "Cores: %d physical, %d logical\n", h.PhysicalCores, h.LogicalCores)
	}
	if h.TotalMemory > 0 {
		fmt.Fprintf(out, "Memory: %s\n", format.FormatBytes(h.TotalMemory))
	}
}

// printCalibrationResults formats and prints the calibration results table.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestJobs int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sJobs%s         │ %sExecution Time%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 14), strings.Repeat("─", 25))
	for _, res := range results {
		jobsLabel := fmt.Sprintf("%d", res.Jobs)
		if res.Jobs == 1 {
			jobsLabel = "Sequential"
		}
		durationStr := fmt.Sprintf("%sN/A%s", ui.ColorRed(), ui.ColorReset())
		if res.Err == nil {
			durationStr = format.FormatExecutionDuration(res.Duration)
			if res.Duration == 0 {
				durationStr = "< 1µs"
			}
		}
		highlight := ""
		if res.Jobs == bestJobs && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12s%s │ %s%s%s%s\n", ui.ColorCyan(), jobsLabel, ui.ColorReset(), ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	tw.Flush()
}

// printCalibrationOutput prints the stored calibration result.
//
// Parameters:
//   - out: The writer for output.
//   - profile: The saved profile.
//   - path: Where the profile was written.
func printCalibrationOutput(out io.Writer, profile *CalibrationProfile, path string) {
	fmt.Fprintf(out, "\n%sCalibration complete%s: jobs=%s%d%s (saved to %s%s%s)\n",
		ui.ColorGreen(), ui.ColorReset(),
		ui.ColorYellow(), profile.OptimalJobs, ui.ColorReset(),
		ui.ColorCyan(), path, ui.ColorReset())
}
