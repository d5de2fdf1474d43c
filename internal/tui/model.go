// Package tui implements the interactive dashboard of primecount with
// bubbletea.
package tui

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/primecount/internal/config"
	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/metrics"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/sysmon"
)

const (
	headerHeight  = 1
	footerHeight  = 1
	minBodyHeight = 4
	// logsShare is the percentage of the width given to the logs panel.
	logsShare = 60
	// maxMetricsHeight caps the metrics panel; the chart takes the rest.
	maxMetricsHeight = 7
	tickInterval     = 500 * time.Millisecond
)

// layout is the size of every panel for one terminal size.
type layout struct {
	logsWidth, rightWidth int
	bodyHeight            int
	metricsHeight         int
	chartHeight           int
}

func computeLayout(width, height, footerLines int) layout {
	l := layout{
		logsWidth:  width * logsShare / 100,
		bodyHeight: max(height-headerHeight-max(footerLines, footerHeight), minBodyHeight),
	}
	l.rightWidth = width - l.logsWidth
	l.metricsHeight = min(maxMetricsHeight, l.bodyHeight/2)
	l.chartHeight = l.bodyHeight - l.metricsHeight
	return l
}

// runHandle identifies the current count. Every reset cancels the previous
// context and bumps generation, so that late messages of a canceled count
// can be told apart.
type runHandle struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
}

func newRunHandle(parent context.Context) runHandle {
	ctx, cancel := context.WithCancel(parent)
	return runHandle{ctx: ctx, cancel: cancel}
}

func (r *runHandle) stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *runHandle) restart(parent context.Context) {
	r.stop()
	r.generation++
	r.ctx, r.cancel = context.WithCancel(parent)
}

// Model is the root bubbletea model for the TUI dashboard.
type Model struct {
	header  HeaderModel
	logs    LogsModel
	metrics MetricsModel
	chart   ChartModel
	footer  FooterModel
	keymap  KeyMap

	run      runHandle
	counters []primes.Counter
	done     bool
	paused   bool
	exitCode int

	width, height int
	panes         layout

	parentCtx context.Context
	config    config.AppConfig
	logger    logging.Logger
	ref       *programRef
}

// NewModel creates a dashboard that counts cfg.Range() with every counter.
func NewModel(parentCtx context.Context, counters []primes.Counter, cfg config.AppConfig, version string) Model {
	names := make([]string, len(counters))
	for i, c := range counters {
		names[i] = c.Name()
	}

	logs := NewLogsModel(names)
	logs.AddExecutionConfig(cfg)

	keymap := DefaultKeyMap()
	return Model{
		header:    NewHeaderModel(version, cfg.Range(), len(counters)),
		logs:      logs,
		metrics:   NewMetricsModel(),
		chart:     NewChartModel(),
		footer:    NewFooterModel(keymap),
		keymap:    keymap,
		run:       newRunHandle(parentCtx),
		counters:  counters,
		exitCode:  apperrors.ExitSuccess,
		parentCtx: parentCtx,
		config:    cfg,
		logger:    logging.Nop(),
		ref:       &programRef{},
	}
}

// Init starts the first count.
func (m Model) Init() tea.Cmd {
	return m.startCmds()
}

func (m Model) startCmds() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startCalculationCmd(m.ref, m.run.ctx, m.counters, m.config, m.logger, m.run.generation),
		watchContextCmd(m.run.ctx, m.run.generation),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()

	case ProgressMsg:
		if m.paused {
			break
		}
		m.logs.AddProgressEntry(msg)
		m.chart.AddDataPoint(msg.Value, msg.AverageProgress, msg.ETA)
		m.metrics.UpdateProgress(msg.AverageProgress)
		if rate := m.liveThroughput(msg.AverageProgress); rate > 0 {
			m.metrics.UpdateThroughput(rate)
			m.chart.AddThroughput(rate)
		}

	case ComparisonResultsMsg:
		m.logs.AddResults(msg.Results)

	case FinalResultMsg:
		m.logs.AddFinalResult(msg)
		return m, computeIndicatorsCmd(msg)

	case IndicatorsMsg:
		m.metrics.UpdateReport(msg.Report)

	case ErrorMsg:
		m.logs.AddError(msg)
		m.footer.SetError(true)
		m.finish()

	case TickMsg:
		if m.done {
			break
		}
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(sampleMemStatsCmd(), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)

	case SysStatsMsg:
		if !m.paused {
			m.chart.UpdateSysStats(msg.CPUPercent, msg.MemPercent)
		}

	case CalculationCompleteMsg:
		if msg.Generation != m.run.generation {
			break
		}
		m.exitCode = msg.ExitCode
		m.finish()
		m.chart.SetDone(m.header.Elapsed())

	case ContextCancelledMsg:
		if msg.Generation != m.run.generation {
			break
		}
		m.finish()
		return m, tea.Quit
	}
	return m, nil
}

// finish stops the clock and marks the run as over.
func (m *Model) finish() {
	m.done = true
	m.header.SetDone()
	m.footer.SetDone(true)
}

// liveThroughput estimates integers examined per second from the average
// progress of the counters.
func (m Model) liveThroughput(average float64) float64 {
	elapsed := m.header.Elapsed().Seconds()
	if elapsed <= 0 || len(m.counters) == 0 {
		return 0
	}
	integers := (float64(m.config.Range().Span()) + 1) * float64(len(m.counters))
	return average * integers / elapsed
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.run.stop()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.footer.ToggleHelp()
		m.relayout()

	case key.Matches(msg, m.keymap.Pause):
		m.setPaused(!m.paused)

	case key.Matches(msg, m.keymap.Reset):
		m.run.restart(m.parentCtx)
		m.resetPanels()
		return m, m.startCmds()

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.logs.Update(msg)
	}
	return m, nil
}

func (m *Model) setPaused(paused bool) {
	m.paused = paused
	m.header.SetPaused(paused)
	m.footer.SetPaused(paused)
}

// resetPanels returns every panel to its state before the first update.
func (m *Model) resetPanels() {
	m.done = false
	m.exitCode = apperrors.ExitSuccess
	m.setPaused(false)
	m.header.Reset()
	m.logs.Reset()
	m.logs.AddExecutionConfig(m.config)
	m.chart.Reset()
	m.metrics = NewMetricsModel()
	m.metrics.SetSize(m.panes.rightWidth, m.panes.metricsHeight)
	m.footer.SetDone(false)
	m.footer.SetError(false)
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	rightCol := lipgloss.JoinVertical(lipgloss.Left, m.metrics.View(), m.chart.View())
	logs := m.logs.renderToHeight(lipgloss.Height(rightCol))
	body := lipgloss.JoinHorizontal(lipgloss.Top, logs, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) relayout() {
	m.footer.SetWidth(m.width)
	m.panes = computeLayout(m.width, m.height, m.footer.Height())
	m.header.SetWidth(m.width)
	m.logs.SetSize(m.panes.logsWidth, m.panes.bodyHeight)
	m.metrics.SetSize(m.panes.rightWidth, m.panes.metricsHeight)
	m.chart.SetSize(m.panes.rightWidth, m.panes.chartHeight)
}

// Run shows the dashboard until the user quits or ctx ends and returns the
// exit code of the last count.
func Run(ctx context.Context, counters []primes.Counter, cfg config.AppConfig, version string) int {
	// app.Run selects the theme before calling us.
	initTUIStyles()

	model := NewModel(ctx, counters, cfg, version)
	defer model.run.stop()

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.ref.SetProgram(p)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go sysmon.Watch(watchCtx, time.Second, func(s sysmon.Stats) {
		model.ref.Send(SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent})
	})

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		m.run.stop()
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// startCalculationCmd runs the counters through the orchestration layer and
// reports back with CalculationCompleteMsg.
func startCalculationCmd(ref *programRef, ctx context.Context, counters []primes.Counter, cfg config.AppConfig, logger logging.Logger, gen uint64) tea.Cmd {
	return func() tea.Msg {
		b := newBridge(ref)
		req := orchestration.CountRequest{
			Range:   cfg.Range(),
			Jobs:    cfg.Jobs,
			Options: cfg.ToParallelOptions(logger),
		}
		results := orchestration.ExecuteCounts(ctx, counters, req, b, io.Discard)
		presOpts := orchestration.PresentationOptions{
			Range:   cfg.Range(),
			Jobs:    cfg.Jobs,
			Verbose: cfg.Verbose,
			Details: cfg.Details,
		}
		exitCode := orchestration.AnalyzeComparisonResults(results, presOpts, b, b, io.Discard)
		return CalculationCompleteMsg{ExitCode: exitCode, Generation: gen}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

var memCollector = metrics.NewMemoryCollector()

func sampleMemStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg{
			MemorySnapshot: memCollector.Snapshot(),
			NumGoroutine:   runtime.NumGoroutine(),
		}
	}
}

// computeIndicatorsCmd builds the run report off the UI goroutine.
func computeIndicatorsCmd(msg FinalResultMsg) tea.Cmd {
	return func() tea.Msg {
		return IndicatorsMsg{Report: metrics.RunReport{
			Integers: float64(msg.Options.Range.Span()) + 1,
			Primes:   msg.Result.Total,
			Duration: msg.Result.Duration,
		}}
	}
}

func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}
