// Package app wires the configuration, the counters and the output surfaces
// of primecount into a runnable application.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/agbru/primecount/internal/calibration"
	"github.com/agbru/primecount/internal/cli"
	"github.com/agbru/primecount/internal/config"
	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/server"
	"github.com/agbru/primecount/internal/tui"
	"github.com/agbru/primecount/internal/ui"
)

// Application represents the primecount application instance.
type Application struct {
	Config    config.AppConfig
	Factory   primes.CounterFactory
	ErrWriter io.Writer
	// In feeds the interactive REPL.
	In io.Reader
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithFactory sets a custom CounterFactory for the application.
func WithFactory(f primes.CounterFactory) AppOption {
	return func(a *Application) { a.Factory = f }
}

// WithInput sets the reader the interactive REPL reads commands from.
func WithInput(in io.Reader) AppOption {
	return func(a *Application) { a.In = in }
}

// New creates a new Application instance by parsing command-line arguments.
//
// When --jobs is not given, the job count comes from a valid cached
// calibration profile or, failing that, from the hardware estimate.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Factory == nil {
		app.Factory = primes.NewDefaultFactory()
	}
	if app.In == nil {
		app.In = os.Stdin
	}

	programName := "primecount"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, app.Factory.List())
	if err != nil {
		return nil, err
	}

	if !cfg.JobsExplicit() {
		if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
			cfg = cfgWithProfile
		} else {
			cfg = config.ApplyAdaptiveJobs(cfg)
		}
	}

	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	level := zerolog.InfoLevel
	if a.Config.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	ui.InitTheme(false)

	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}

	a.Config = a.runAutoCalibrationIfEnabled(ctx, out)

	switch {
	case a.Config.Serve != "":
		return a.runServer(ctx)
	case a.Config.TUI:
		return a.runTUI(ctx, out)
	case a.Config.Interactive:
		return a.runREPL(ctx, out)
	default:
		return a.runCalculate(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runCalibration runs the full calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	return calibration.RunCalibration(ctx, out, a.Factory.GetAll(), a.Config.CalibrationProfile, cli.DisplayProgress, cli.CLIColorProvider{})
}

// runAutoCalibrationIfEnabled replaces the hardware estimate with a quick
// measurement when --auto-calibrate is set and --jobs is not.
func (a *Application) runAutoCalibrationIfEnabled(ctx context.Context, out io.Writer) config.AppConfig {
	if !a.Config.AutoCalibrate || a.Config.JobsExplicit() {
		return a.Config
	}
	if a.Config.Quiet || a.Config.TUI {
		out = io.Discard
	}
	if updated, ok := calibration.AutoCalibrate(ctx, a.Config, out, a.Factory.GetAll()); ok {
		return updated
	}
	return a.Config
}

// runServer serves the HTTP API until the process is interrupted.
func (a *Application) runServer(ctx context.Context) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	policy, _ := parallel.ParsePolicy(a.Config.Policy)
	algo := a.Config.Algo
	if algo == "all" {
		algo = config.DefaultAlgo
	}
	srvCfg, err := server.ApplyEnv(server.Config{
		Addr:           a.Config.Serve,
		DefaultJobs:    a.Config.Jobs,
		DefaultAlgo:    algo,
		DefaultPolicy:  policy,
		RequestTimeout: a.Config.Timeout,
		Security:       server.DefaultSecurityConfig(),
	})
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	srv := server.NewServer(srvCfg, a.Factory, logging.NewLogger(a.ErrWriter, "server"))

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive TUI dashboard.
func (a *Application) runTUI(ctx context.Context, _ io.Writer) int {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	countersToRun := orchestration.GetCountersToRun(a.Config.Algo, a.Factory)
	return tui.Run(ctx, countersToRun, a.Config, Version)
}

// runREPL starts the interactive session. The configured timeout bounds each
// command rather than the session.
func (a *Application) runREPL(ctx context.Context, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	policy, _ := parallel.ParsePolicy(a.Config.Policy)
	algo := a.Config.Algo
	if algo == "all" {
		algo = config.DefaultAlgo
	}
	repl := cli.NewREPL(a.Factory.GetAll(), cli.REPLConfig{
		DefaultAlgo: algo,
		Jobs:        a.Config.Jobs,
		Policy:      policy,
		Timeout:     a.Config.Timeout,
	})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	repl.Start(ctx)
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
