package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig holds the operator overrides of the server. Unset variables
// leave the corresponding Config field unchanged.
type envConfig struct {
	MaxSpan         uint64        `env:"PRIMECOUNT_SERVER_MAX_SPAN"`
	MaxJobs         int           `env:"PRIMECOUNT_SERVER_MAX_JOBS"`
	MaxTrialHigh    uint64        `env:"PRIMECOUNT_SERVER_MAX_TRIAL_HIGH"`
	AllowedOrigins  []string      `env:"PRIMECOUNT_SERVER_ALLOWED_ORIGINS" envSeparator:","`
	DisableCORS     bool          `env:"PRIMECOUNT_SERVER_DISABLE_CORS"`
	RequestTimeout  time.Duration `env:"PRIMECOUNT_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"PRIMECOUNT_SERVER_SHUTDOWN_TIMEOUT"`
}

// ApplyEnv overlays the PRIMECOUNT_SERVER_* environment variables on cfg.
//
// Parameters:
//   - cfg: The configuration built from the command line.
//
// Returns:
//   - Config: cfg with the environment overrides applied.
//   - error: A parse error for a malformed variable.
func ApplyEnv(cfg Config) (Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return cfg, fmt.Errorf("parse server env: %w", err)
	}
	if e.MaxSpan > 0 {
		cfg.Security.MaxSpan = e.MaxSpan
	}
	if e.MaxJobs > 0 {
		cfg.Security.MaxJobs = e.MaxJobs
	}
	if e.MaxTrialHigh > 0 {
		cfg.Security.MaxTrialHigh = e.MaxTrialHigh
	}
	if len(e.AllowedOrigins) > 0 {
		cfg.Security.AllowedOrigins = e.AllowedOrigins
	}
	if e.DisableCORS {
		cfg.Security.EnableCORS = false
	}
	if e.RequestTimeout > 0 {
		cfg.RequestTimeout = e.RequestTimeout
	}
	if e.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = e.ShutdownTimeout
	}
	return cfg, nil
}
