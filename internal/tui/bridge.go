package tui

import (
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/progress"
)

// progressInterval is the shortest gap between two ProgressMsg of a run.
// The sieve reports once per segment, far more often than a frame.
const progressInterval = 50 * time.Millisecond

// messageSink receives messages for the running program. *tea.Program
// satisfies it.
type messageSink interface {
	Send(msg tea.Msg)
}

// programRef outlives the copies bubbletea makes of the model, so that
// goroutines started from one copy can reach the program.
type programRef struct {
	mu   sync.RWMutex
	sink messageSink
}

// SetProgram installs the destination of Send.
func (r *programRef) SetProgram(s messageSink) {
	r.mu.Lock()
	r.sink = s
	r.mu.Unlock()
}

// Send forwards msg, or drops it when no program is installed.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	s := r.sink
	r.mu.RUnlock()
	if s != nil {
		s.Send(msg)
	}
}

// bridge turns orchestration callbacks into bubbletea messages.
type bridge struct {
	ref *programRef
	now func() time.Time
}

var (
	_ orchestration.ProgressReporter  = (*bridge)(nil)
	_ orchestration.ResultPresenter   = (*bridge)(nil)
	_ orchestration.DurationFormatter = (*bridge)(nil)
	_ orchestration.ErrorHandler      = (*bridge)(nil)
)

func newBridge(ref *programRef) *bridge {
	return &bridge{ref: ref, now: time.Now}
}

// DisplayProgress folds counter updates into ProgressMsg values. Updates
// arriving within progressInterval of the last message are coalesced; the
// newest one is always delivered before ProgressDoneMsg.
func (b *bridge) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numCounters)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	var (
		lastSent time.Time
		pending  *ProgressMsg
	)
	for update := range progressChan {
		ap := agg.Update(update)
		msg := ProgressMsg{
			CounterIndex:    ap.CounterIndex,
			Value:           ap.Value,
			AverageProgress: ap.AverageProgress,
			ETA:             ap.ETA,
		}
		if at := b.now(); at.Sub(lastSent) >= progressInterval || ap.AverageProgress >= 1 {
			b.ref.Send(msg)
			lastSent, pending = at, nil
			continue
		}
		pending = &msg
	}
	if pending != nil {
		b.ref.Send(*pending)
	}
	b.ref.Send(ProgressDoneMsg{})
}

// PresentComparisonTable hands the per-counter results to the logs panel.
func (b *bridge) PresentComparisonTable(results []orchestration.CountResult, _ io.Writer) {
	b.ref.Send(ComparisonResultsMsg{Results: results})
}

// PresentResult hands the agreed count to the logs and metrics panels.
func (b *bridge) PresentResult(result orchestration.CountResult, opts orchestration.PresentationOptions, _ io.Writer) {
	b.ref.Send(FinalResultMsg{Result: result, Options: opts})
}

func (b *bridge) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}

// HandleError reports err to the dashboard and returns the exit code the
// CLI would use for it.
func (b *bridge) HandleError(err error, duration time.Duration, _ io.Writer) int {
	if err != nil {
		b.ref.Send(ErrorMsg{Err: err, Duration: duration})
	}
	return apperrors.HandleCalculationError(err, duration, io.Discard, nil)
}
