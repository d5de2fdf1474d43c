package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
)

// recordingSink keeps every message it receives.
type recordingSink struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSink) Send(msg tea.Msg) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *recordingSink) progress() []ProgressMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ProgressMsg
	for _, m := range s.msgs {
		if p, ok := m.(ProgressMsg); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *recordingSink) last() tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return nil
	}
	return s.msgs[len(s.msgs)-1]
}

// newRecordedBridge returns a bridge whose clock advances by step on every
// reading.
func newRecordedBridge(step time.Duration) (*bridge, *recordingSink) {
	sink := &recordingSink{}
	ref := &programRef{}
	ref.SetProgram(sink)
	b := newBridge(ref)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time {
		at = at.Add(step)
		return at
	}
	return b, sink
}

func runProgress(b *bridge, counters int, updates ...progress.ProgressUpdate) {
	ch := make(chan progress.ProgressUpdate, len(updates))
	for _, u := range updates {
		ch <- u
	}
	close(ch)
	var wg sync.WaitGroup
	wg.Add(1)
	b.DisplayProgress(&wg, ch, counters, nil)
	wg.Wait()
}

func TestBridge_DisplayProgress(t *testing.T) {
	t.Parallel()
	updates := []progress.ProgressUpdate{
		{CounterIndex: 0, Value: 0.2},
		{CounterIndex: 1, Value: 0.4},
		{CounterIndex: 0, Value: 0.6},
		{CounterIndex: 1, Value: 0.8},
	}
	tests := []struct {
		name      string
		step      time.Duration
		wantSent  int
		wantFinal float64
	}{
		{"slow updates all pass", progressInterval, 4, 0.7},
		{"fast updates are coalesced", time.Millisecond, 2, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, sink := newRecordedBridge(tt.step)
			runProgress(b, 2, updates...)

			got := sink.progress()
			if len(got) != tt.wantSent {
				t.Fatalf("sent %d ProgressMsg, want %d: %+v", len(got), tt.wantSent, got)
			}
			if final := got[len(got)-1].AverageProgress; final != tt.wantFinal {
				t.Errorf("last average = %v, want %v", final, tt.wantFinal)
			}
			if _, ok := sink.last().(ProgressDoneMsg); !ok {
				t.Errorf("last message = %T, want ProgressDoneMsg", sink.last())
			}
		})
	}
}

func TestBridge_CompletionIsNeverCoalesced(t *testing.T) {
	t.Parallel()
	b, sink := newRecordedBridge(time.Microsecond)
	runProgress(b, 1,
		progress.ProgressUpdate{Value: 0.1},
		progress.ProgressUpdate{Value: 0.5},
		progress.ProgressUpdate{Value: 1},
	)
	got := sink.progress()
	if len(got) != 2 || got[1].AverageProgress != 1 {
		t.Errorf("messages = %+v, want the first sample and completion", got)
	}
}

func TestBridge_DisplayProgressWithoutCounters(t *testing.T) {
	t.Parallel()
	b, sink := newRecordedBridge(time.Second)
	runProgress(b, 0, progress.ProgressUpdate{Value: 0.5})
	if n := len(sink.msgs); n != 0 {
		t.Errorf("sent %d messages for zero counters, want none", n)
	}
}

func TestBridge_Results(t *testing.T) {
	t.Parallel()
	b, sink := newRecordedBridge(time.Second)

	results := []orchestration.CountResult{
		{Name: "Segmented Sieve", Total: 168, Duration: 3 * time.Millisecond},
		{Name: "Trial Division (6k±1, √n)", Total: 168, Duration: 9 * time.Millisecond},
	}
	b.PresentComparisonTable(results, nil)
	cmp, ok := sink.last().(ComparisonResultsMsg)
	if !ok || len(cmp.Results) != 2 {
		t.Fatalf("last message = %#v, want the comparison", sink.last())
	}

	opts := orchestration.PresentationOptions{Range: primes.Range{Low: 0, High: 1000}, Jobs: 4}
	b.PresentResult(results[0], opts, nil)
	final, ok := sink.last().(FinalResultMsg)
	if !ok || final.Result.Total != 168 || final.Options.Range.High != 1000 {
		t.Errorf("last message = %#v, want the final result", sink.last())
	}

	if got := b.FormatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("FormatDuration = %q, want 1.5s", got)
	}
}

func TestBridge_HandleError(t *testing.T) {
	t.Parallel()
	workerErr := &apperrors.AggregateError{Failures: []apperrors.WorkerError{{Index: 2, Low: 500, High: 749, Cause: errors.New("boom")}}}
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  bool
	}{
		{"success", nil, apperrors.ExitSuccess, false},
		{"timeout", context.DeadlineExceeded, apperrors.ExitErrorTimeout, true},
		{"canceled", context.Canceled, apperrors.ExitErrorCanceled, true},
		{"worker failure", workerErr, apperrors.ExitErrorWorker, true},
		{"other", errors.New("disk on fire"), apperrors.ExitErrorGeneric, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, sink := newRecordedBridge(time.Second)
			if code := b.HandleError(tt.err, 2*time.Second, nil); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			msg, ok := sink.last().(ErrorMsg)
			if ok != tt.wantMsg {
				t.Fatalf("ErrorMsg sent = %v, want %v", ok, tt.wantMsg)
			}
			if ok && (msg.Duration != 2*time.Second || !errors.Is(msg.Err, tt.err)) {
				t.Errorf("ErrorMsg = %+v", msg)
			}
		})
	}
}

func TestProgramRef_SendWithoutProgram(t *testing.T) {
	t.Parallel()
	ref := &programRef{}
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref.Send(ProgressMsg{Value: float64(i) / 64})
		}()
	}
	wg.Wait()

	sink := &recordingSink{}
	ref.SetProgram(sink)
	ref.Send(ProgressDoneMsg{})
	if len(sink.msgs) != 1 {
		t.Errorf("sink received %d messages, want 1", len(sink.msgs))
	}
}
