package config

import "runtime"

// Job count resolution chain (highest priority first):
//   1. CLI flag (--jobs)
//   2. Environment variable (PRIMECOUNT_JOBS)
//   3. Cached calibration profile (~/.primecount_calibration.json)
//   4. Hardware estimation (this file)

// maxEstimatedJobs caps the hardware estimate on very large machines, where
// more parts only add scheduling overhead for typical ranges.
const maxEstimatedJobs = 64

// ApplyAdaptiveJobs fills in the job count from the hardware estimate when
// neither a flag nor the environment supplied one.
func ApplyAdaptiveJobs(cfg AppConfig) AppConfig {
	if !cfg.jobsSet && cfg.Jobs == 0 {
		cfg.Jobs = EstimateOptimalJobs()
	}
	return cfg
}

// WithJobs returns cfg with a resolved job count that is not treated as user
// supplied. The calibration profile uses it.
func WithJobs(cfg AppConfig, jobs int) AppConfig {
	if !cfg.jobsSet && jobs > 0 {
		cfg.Jobs = jobs
	}
	return cfg
}

// EstimateOptimalJobs returns a heuristic job count without running
// benchmarks. Sub-ranges near the top of a range are more expensive than
// those near the bottom, so a few more parts than cores keeps every core
// busy until the end.
func EstimateOptimalJobs() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU <= 1:
		return 1
	case numCPU <= 4:
		return numCPU * 2
	default:
		return min(numCPU*4, maxEstimatedJobs)
	}
}
