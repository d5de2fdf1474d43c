// Package config parses the command-line flags and environment overrides of
// primecount into an AppConfig.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
)

const (
	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "PRIMECOUNT_"
	// DefaultAlgo is the counter used when --algo is not given.
	DefaultAlgo = "sqrt"
	// DefaultLow and DefaultHigh bound the default range.
	DefaultLow  = "0"
	DefaultHigh = "1000000"
	// DefaultTimeout bounds a CLI run.
	DefaultTimeout = 5 * time.Minute
	// DefaultPolicy is the worker failure policy.
	DefaultPolicy = "fail-fast"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Low and High are the inclusive bounds of the range to count.
	Low, High uint64
	// Jobs is the number of sub-ranges. Zero means "not set": it is resolved
	// from the calibration profile or the hardware estimate.
	Jobs int
	// Algo is a registered counter key or "all".
	Algo string
	// Policy is "fail-fast" or "best-effort".
	Policy string
	// Timeout bounds the whole run.
	Timeout time.Duration
	// OutputFile receives the result when non-empty.
	OutputFile string
	Verbose    bool
	Details    bool
	Quiet      bool
	// TUI starts the interactive dashboard.
	TUI bool
	// Interactive starts the line-oriented REPL.
	Interactive bool
	// Serve is the listen address of the HTTP server. Empty disables it.
	Serve string
	// Calibrate runs the job-count benchmark instead of a count.
	Calibrate bool
	// AutoCalibrate runs a quick benchmark before the count when neither
	// --jobs nor a cached profile supplies the job count.
	AutoCalibrate bool
	// Completion names the shell whose completion script is printed.
	Completion string
	// CalibrationProfile overrides the profile path.
	CalibrationProfile string

	jobsSet bool
}

// Range returns the configured bounds as a primes.Range.
func (c AppConfig) Range() primes.Range {
	return primes.Range{Low: c.Low, High: c.High}
}

// JobsExplicit reports whether the job count came from a flag or the
// environment rather than a default.
func (c AppConfig) JobsExplicit() bool {
	return c.jobsSet
}

// ToParallelOptions converts the configuration into aggregator options.
// The policy must already be validated.
func (c AppConfig) ToParallelOptions(logger logging.Logger) parallel.Options {
	policy, _ := parallel.ParsePolicy(c.Policy)
	return parallel.Options{
		Policy:  policy,
		Timeout: c.Timeout,
		Logger:  logger,
	}
}

// Validate checks the semantic validity of the configuration.
//
// Parameters:
//   - availableAlgos: The registered counter keys.
//
// Returns:
//   - error: A RangeError, ValidationError or ConfigError, or nil.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Low > c.High {
		return apperrors.RangeError{Low: clampInt64(c.Low), High: clampInt64(c.High), Reason: "low exceeds high"}
	}
	if c.jobsSet && c.Jobs < 1 {
		return apperrors.ValidationError{Field: "jobs", Message: fmt.Sprintf("must be at least 1, got %d", c.Jobs)}
	}
	if c.Timeout <= 0 {
		return apperrors.ValidationError{Field: "timeout", Message: "must be positive"}
	}
	if c.Algo != "all" && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm %q; valid choices: all, %s", c.Algo, strings.Join(availableAlgos, ", "))
	}
	if _, err := parallel.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.Quiet && c.TUI {
		return apperrors.NewConfigError("--quiet and --tui are mutually exclusive")
	}
	return nil
}

// ParseConfig parses the command-line arguments, applies environment
// overrides for flags that were not set, and validates the result.
//
// Parameters:
//   - programName: The name used in usage output.
//   - args: The arguments without the program name.
//   - errorOutput: Receives usage and parse errors.
//   - availableAlgos: The registered counter keys.
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp when help was requested, or a validation error.
func ParseConfig(programName string, args []string, errorOutput io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorOutput)

	config := AppConfig{}
	var low, high string
	fs.StringVar(&low, "low", DefaultLow, "Inclusive lower bound of the range.")
	fs.StringVar(&high, "high", DefaultHigh, "Inclusive upper bound of the range.")
	fs.IntVar(&config.Jobs, "jobs", 0, "Number of parallel sub-ranges (default: calibrated or one per CPU).")
	fs.IntVar(&config.Jobs, "j", 0, "Shorthand for --jobs.")
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, fmt.Sprintf("Counter to use: 'all' or one of [%s].", strings.Join(availableAlgos, ", ")))
	fs.StringVar(&config.Policy, "policy", DefaultPolicy, "Worker failure policy: fail-fast or best-effort.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of the run.")
	fs.StringVar(&config.OutputFile, "output", "", "Write the result to this file.")
	fs.StringVar(&config.OutputFile, "o", "", "Shorthand for --output.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Print per-counter detail.")
	fs.BoolVar(&config.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&config.Details, "details", false, "Print memory, system and throughput details.")
	fs.BoolVar(&config.Details, "d", false, "Shorthand for --details.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the prime count.")
	fs.BoolVar(&config.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&config.TUI, "tui", false, "Start the interactive dashboard.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start the interactive REPL.")
	fs.BoolVar(&config.Interactive, "i", false, "Shorthand for --interactive.")
	fs.StringVar(&config.Serve, "serve", "", "Start the HTTP server on this address (e.g. :8080).")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark job counts and store the optimal one.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Run a quick calibration when no cached profile exists.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path of the calibration profile.")
	fs.StringVar(&config.Completion, "completion", "", "Print the completion script for a shell (bash, zsh, fish, powershell).")
	// Accepted so that --version does not fail parsing; handled by the app.
	fs.Bool("version", false, "Print version information and exit.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	config.jobsSet = isFlagSetAny(fs, "jobs", "j")
	layer := readEnvLayer()
	layer.apply(&config, fs)
	low, high = layer.bounds(fs, low, high)

	var err error
	if config.Low, config.High, err = parseBounds(low, high); err != nil {
		return AppConfig{}, err
	}
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorOutput, "Configuration error:", err)
		return AppConfig{}, err
	}
	return config, nil
}

// parseBounds converts the textual bounds into a range. Negative values are
// reported as range errors rather than parse errors. Underscores and 0x
// prefixes are accepted.
func parseBounds(low, high string) (uint64, uint64, error) {
	lo, loNeg, err := parseBound("low", low)
	if err != nil {
		return 0, 0, err
	}
	hi, hiNeg, err := parseBound("high", high)
	if err != nil {
		return 0, 0, err
	}
	if loNeg || hiNeg {
		r, err := primes.ParseRange(lo.signed, hi.signed)
		return r.Low, r.High, err
	}
	return lo.unsigned, hi.unsigned, nil
}

type bound struct {
	unsigned uint64
	signed   int64
}

func parseBound(name, s string) (bound, bool, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return bound{}, false, apperrors.ValidationError{Field: name, Message: fmt.Sprintf("%q is not an integer", s)}
		}
		return bound{signed: v}, true, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return bound{}, false, apperrors.ValidationError{Field: name, Message: fmt.Sprintf("%s exceeds 2^64-1", s)}
		}
		return bound{}, false, apperrors.ValidationError{Field: name, Message: fmt.Sprintf("%q is not an integer", s)}
	}
	return bound{unsigned: v, signed: clampInt64(v)}, false, nil
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}
