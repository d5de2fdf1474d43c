package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/primecount/internal/config"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/ui"
)

// QuickCalibrationRange is the reference range of AutoCalibrate. It is kept
// small so that the benchmark costs well under a second.
var QuickCalibrationRange = primes.Range{Low: 0, High: 300_000}

// AutoCalibrate resolves the job count of cfg with a quick benchmark and
// caches the result. A valid cached profile is used as is.
//
// Parameters:
//   - ctx: Cancels the measurements.
//   - cfg: The configuration to update.
//   - out: Receives a one-line summary; io.Discard silences it.
//   - counters: The registered counters, by key.
//
// Returns:
//   - config.AppConfig: cfg with the measured job count applied.
//   - bool: Whether a job count was found.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer, counters map[string]primes.Counter) (config.AppConfig, bool) {
	if cached, ok := LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		return cached, true
	}
	key, counter := pickCounter(counters)
	if counter == nil {
		return cfg, false
	}

	start := time.Now()
	results := calibrate(ctx, counter, QuickCalibrationRange, GenerateQuickJobCandidates(), nil)
	if ctx.Err() != nil || checkConsistency(results) != nil {
		return cfg, false
	}
	best, ok := bestResult(results)
	if !ok {
		return cfg, false
	}

	profile := NewProfile()
	profile.OptimalJobs = best.Jobs
	profile.CalibrationAlgo = key
	profile.CalibrationLow = QuickCalibrationRange.Low
	profile.CalibrationHigh = QuickCalibrationRange.High
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()

	path := cfg.CalibrationProfile
	if path == "" {
		path = GetDefaultProfilePath()
	}
	// An unwritable profile only costs the next run another quick benchmark.
	_ = profile.SaveProfile(path)

	fmt.Fprintf(out, "%sAuto-calibration%s: jobs=%d (%s)\n", ui.ColorGreen(), ui.ColorReset(), best.Jobs, profile.CalibrationTime)
	return config.WithJobs(cfg, best.Jobs), true
}
