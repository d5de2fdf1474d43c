package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/agbru/primecount/internal/cli"
	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/orchestration"
)

// runCalculate orchestrates the execution of the CLI count command.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	// Setup lifecycle (timeout + signals)
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	countersToRun := orchestration.GetCountersToRun(a.Config.Algo, a.Factory)

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(countersToRun, out)
	}

	var progressReporter orchestration.ProgressReporter
	progressOut := out
	if a.Config.Quiet {
		progressOut = io.Discard
		progressReporter = orchestration.NullProgressReporter{}
	} else {
		progressReporter = cli.CLIProgressReporter{}
	}

	req := orchestration.CountRequest{
		Range:   a.Config.Range(),
		Jobs:    a.Config.Jobs,
		Options: a.Config.ToParallelOptions(logging.NewLogger(a.ErrWriter, "parallel")),
	}
	results := orchestration.ExecuteCounts(ctx, countersToRun, req, progressReporter, progressOut)

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
	}
	return a.analyzeResultsWithOutput(results, outputCfg, out)
}

func (a *Application) presentationOptions() orchestration.PresentationOptions {
	return orchestration.PresentationOptions{
		Range:   a.Config.Range(),
		Jobs:    a.Config.Jobs,
		Verbose: a.Config.Verbose,
		Details: a.Config.Details,
	}
}

func (a *Application) analyzeResultsWithOutput(results []orchestration.CountResult, outputCfg cli.OutputConfig, out io.Writer) int {
	bestResult := findBestResult(results)

	// Quiet mode prints the bare count of the fastest successful counter.
	if outputCfg.Quiet {
		if bestResult == nil {
			return a.quietFailure(results)
		}
		if code := consistencyCode(results, bestResult.Total); code != apperrors.ExitSuccess {
			fmt.Fprintln(a.ErrWriter, "Error: the counters disagree on the number of primes")
			return code
		}
		if err := cli.DisplayResultWithConfig(out, *bestResult, a.presentationOptions(), outputCfg); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}

	exitCode := orchestration.AnalyzeComparisonResults(results, a.presentationOptions(), cli.CLIResultPresenter{}, cli.CLIResultPresenter{}, out)

	if bestResult != nil && exitCode == apperrors.ExitSuccess && outputCfg.OutputFile != "" {
		if err := cli.WriteResultToFile(*bestResult, a.Config.Range(), a.Config.Jobs, outputCfg); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		fmt.Fprintf(out, "\n✓ Result saved to: %s\n", outputCfg.OutputFile)
	}

	return exitCode
}

// quietFailure reports the first error of a run where every counter failed.
func (a *Application) quietFailure(results []orchestration.CountResult) int {
	for _, res := range results {
		if res.Err != nil {
			return apperrors.HandleCalculationError(res.Err, res.Duration, a.ErrWriter, cli.CLIColorProvider{})
		}
	}
	fmt.Fprintln(a.ErrWriter, "Error: no counter selected")
	return apperrors.ExitErrorConfig
}

func consistencyCode(results []orchestration.CountResult, total uint64) int {
	for _, res := range results {
		if res.Err == nil && res.Total != total {
			return apperrors.ExitErrorMismatch
		}
	}
	return apperrors.ExitSuccess
}

func findBestResult(results []orchestration.CountResult) *orchestration.CountResult {
	var bestResult *orchestration.CountResult
	for i := range results {
		if results[i].Err == nil {
			if bestResult == nil || results[i].Duration < bestResult.Duration {
				bestResult = &results[i]
			}
		}
	}
	return bestResult
}
