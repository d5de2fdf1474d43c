package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/primecount/internal/config"
	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/primes"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.AppConfig{Low: 0, High: 10000, Jobs: 2, Algo: "sqrt", Policy: "fail-fast", Timeout: time.Minute}
	m := NewModel(context.Background(), []primes.Counter{primes.SqrtTrialDivision{}}, cfg, "v1.0.0")
	t.Cleanup(m.run.stop)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", got)
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	if m.width != 120 || m.height != 40 {
		t.Fatalf("size = %dx%d, want 120x40", m.width, m.height)
	}
	view := m.View()
	for _, want := range []string{"primecount v1.0.0", "[0, 10000]", "1 counter"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
}

func TestComputeLayout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                  string
		width, height, footer int
		wantBody, wantMetrics int
	}{
		{"roomy", 120, 40, 1, 38, maxMetricsHeight},
		{"tall footer", 120, 40, 6, 33, maxMetricsHeight},
		{"short terminal", 80, 10, 1, 8, 4},
		{"clamped body", 40, 3, 1, minBodyHeight, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := computeLayout(tt.width, tt.height, tt.footer)
			if l.logsWidth+l.rightWidth != tt.width {
				t.Errorf("widths %d + %d != %d", l.logsWidth, l.rightWidth, tt.width)
			}
			if l.bodyHeight != tt.wantBody || l.metricsHeight != tt.wantMetrics {
				t.Errorf("body %d metrics %d, want %d and %d", l.bodyHeight, l.metricsHeight, tt.wantBody, tt.wantMetrics)
			}
			if l.metricsHeight+l.chartHeight != l.bodyHeight {
				t.Errorf("right column %d + %d != body %d", l.metricsHeight, l.chartHeight, l.bodyHeight)
			}
		})
	}
}

func TestModel_PauseToggle(t *testing.T) {
	m := newTestModel(t)
	space := tea.KeyMsg{Type: tea.KeySpace}

	m, _ = update(t, m, space)
	if !m.paused {
		t.Fatal("space should pause")
	}

	// Progress is ignored while paused.
	m, _ = update(t, m, ProgressMsg{CounterIndex: 0, Value: 0.5, AverageProgress: 0.5})
	if m.chart.averageProgress != 0 {
		t.Errorf("paused model recorded progress %v", m.chart.averageProgress)
	}

	m, _ = update(t, m, space)
	if m.paused {
		t.Fatal("second space should resume")
	}

	m, _ = update(t, m, ProgressMsg{CounterIndex: 0, Value: 0.5, AverageProgress: 0.5})
	if m.chart.averageProgress != 0.5 {
		t.Errorf("averageProgress = %v, want 0.5", m.chart.averageProgress)
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.footer.ShowingFullHelp() {
		t.Error("? should show the full help")
	}
}

func TestModel_QuitCancelsContext(t *testing.T) {
	m := newTestModel(t)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command should produce tea.QuitMsg")
	}
	if m.run.ctx.Err() == nil {
		t.Error("quit should cancel the run context")
	}
}

func TestModel_CalculationComplete(t *testing.T) {
	m := newTestModel(t)

	stale, _ := update(t, m, CalculationCompleteMsg{ExitCode: apperrors.ExitErrorMismatch, Generation: m.run.generation + 1})
	if stale.done {
		t.Error("stale completion should be ignored")
	}

	m, _ = update(t, m, CalculationCompleteMsg{ExitCode: apperrors.ExitErrorMismatch, Generation: m.run.generation})
	if !m.done || m.exitCode != apperrors.ExitErrorMismatch {
		t.Errorf("done=%v exitCode=%d, want true/%d", m.done, m.exitCode, apperrors.ExitErrorMismatch)
	}

	// Ticks stop once the run is done.
	if _, cmd := update(t, m, TickMsg(time.Now())); cmd != nil {
		t.Error("tick after completion should not schedule another tick")
	}
}

func TestModel_ResetStartsNewGeneration(t *testing.T) {
	m := newTestModel(t)
	oldCtx := m.run.ctx
	m, _ = update(t, m, CalculationCompleteMsg{Generation: m.run.generation})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("reset should restart the calculation")
	}
	if m.run.generation != 1 {
		t.Errorf("generation = %d, want 1", m.run.generation)
	}
	if m.done {
		t.Error("reset should clear the done flag")
	}
	if oldCtx.Err() == nil {
		t.Error("reset should cancel the previous run")
	}
	if m.run.ctx.Err() != nil {
		t.Error("the new run context should be live")
	}
}

func TestModel_ErrorMsg(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, ErrorMsg{Err: errors.New("boom"), Duration: time.Second})
	if !m.done || !m.footer.hasError {
		t.Error("ErrorMsg should finish the run and flag the footer")
	}
}

func TestModel_FinalResultComputesIndicators(t *testing.T) {
	m := newTestModel(t)
	msg := FinalResultMsg{
		Result:  orchestration.CountResult{Name: "sqrt", Total: 1229, Duration: time.Second},
		Options: orchestration.PresentationOptions{Range: primes.Range{Low: 0, High: 9999}},
	}
	_, cmd := update(t, m, msg)
	if cmd == nil {
		t.Fatal("FinalResultMsg should schedule the indicators computation")
	}
	ind, ok := cmd().(IndicatorsMsg)
	if !ok {
		t.Fatalf("expected IndicatorsMsg, got %T", cmd())
	}
	if ind.Report.Integers != 10000 || ind.Report.Primes != 1229 {
		t.Errorf("unexpected report %+v", ind.Report)
	}
}

func TestStartCalculationCmd(t *testing.T) {
	cfg := config.AppConfig{Low: 0, High: 1000, Jobs: 3, Policy: "fail-fast", Timeout: time.Minute}
	counters := []primes.Counter{primes.SqrtTrialDivision{}, primes.SegmentedSieve{}}

	msg := startCalculationCmd(&programRef{}, context.Background(), counters, cfg, nil, 7)()
	done, ok := msg.(CalculationCompleteMsg)
	if !ok {
		t.Fatalf("expected CalculationCompleteMsg, got %T", msg)
	}
	if done.Generation != 7 || done.ExitCode != apperrors.ExitSuccess {
		t.Errorf("got %+v, want generation 7 and success", done)
	}
}

func TestWatchContextCmd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg := watchContextCmd(ctx, 3)()
	cc, ok := msg.(ContextCancelledMsg)
	if !ok || cc.Generation != 3 || !errors.Is(cc.Err, context.Canceled) {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSampleMemStatsCmd(t *testing.T) {
	msg, ok := sampleMemStatsCmd()().(MemStatsMsg)
	if !ok {
		t.Fatal("expected MemStatsMsg")
	}
	if msg.NumGoroutine < 1 || msg.HeapAlloc == 0 {
		t.Errorf("implausible stats %+v", msg)
	}
}
