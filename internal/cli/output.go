// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//     Examples: [DisplayResult], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteResultToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// Quiet prints only the count.
	Quiet bool
	// Verbose adds the counter and job count to the output.
	Verbose bool
}

// WriteResultToFile writes a count result to config.OutputFile, creating
// parent directories as needed. It does nothing when no file is configured.
//
// Parameters:
//   - result: The result to save.
//   - r: The counted range.
//   - jobs: The number of sub-ranges used.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(result orchestration.CountResult, r primes.Range, jobs int, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	if dir := filepath.Dir(config.OutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# Prime Count Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Counter: %s\n", result.Name)
	fmt.Fprintf(file, "# Jobs: %d\n", jobs)
	fmt.Fprintf(file, "# Duration: %s\n", result.Duration)
	fmt.Fprintf(file, "# Low: %d\n", r.Low)
	fmt.Fprintf(file, "# High: %d\n", r.High)
	fmt.Fprintf(file, "\n")
	if _, err := fmt.Fprintf(file, "pi%s = %d\n", r, result.Total); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return file.Close()
}

// FormatQuietResult formats a result for quiet mode: the bare count, suitable
// for scripting.
func FormatQuietResult(total uint64) string {
	return strconv.FormatUint(total, 10)
}

// DisplayQuietResult prints the bare count followed by a newline.
func DisplayQuietResult(out io.Writer, total uint64) {
	fmt.Fprintln(out, FormatQuietResult(total))
}

// DisplayResultWithConfig prints a result in the configured mode and saves
// it to the output file when one is set.
//
// Parameters:
//   - out: The output writer.
//   - result: The result to display.
//   - opts: The range, job count and detail flags.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultWithConfig(out io.Writer, result orchestration.CountResult, opts orchestration.PresentationOptions, config OutputConfig) error {
	if config.Quiet {
		DisplayQuietResult(out, result.Total)
	} else {
		DisplayResult(result, opts, out)
	}

	if config.OutputFile == "" {
		return nil
	}
	if err := WriteResultToFile(result, opts.Range, opts.Jobs, config); err != nil {
		return err
	}
	if !config.Quiet {
		fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
	}
	return nil
}
