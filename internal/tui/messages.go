package tui

import (
	"time"

	"github.com/agbru/primecount/internal/metrics"
	"github.com/agbru/primecount/internal/orchestration"
)

// ProgressMsg carries one aggregated progress update.
type ProgressMsg struct {
	CounterIndex    int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// ProgressDoneMsg signals that the progress channel was closed.
type ProgressDoneMsg struct{}

// ComparisonResultsMsg carries the per-counter results of a run.
type ComparisonResultsMsg struct {
	Results []orchestration.CountResult
}

// FinalResultMsg carries the result chosen for display.
type FinalResultMsg struct {
	Result  orchestration.CountResult
	Options orchestration.PresentationOptions
}

// IndicatorsMsg carries the post-run report computed off the UI goroutine.
type IndicatorsMsg struct {
	Report metrics.RunReport
}

// ErrorMsg reports a failed run.
type ErrorMsg struct {
	Err      error
	Duration time.Duration
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory sample.
type MemStatsMsg struct {
	metrics.MemorySnapshot
	NumGoroutine int
}

// SysStatsMsg carries a system-wide CPU and memory sample.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// CalculationCompleteMsg is sent when every counter has returned.
// Generation identifies the run so that results of a reset run are ignored.
type CalculationCompleteMsg struct {
	ExitCode   int
	Generation uint64
}

// ContextCancelledMsg is sent when the run context ends.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}
