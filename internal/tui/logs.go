package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/primecount/internal/config"
	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/orchestration"
)

// progressMilestones is the number of log lines emitted per counter over a
// run (one every 25%).
const progressMilestones = 4

// LogsModel renders the per-counter progress bars and a scrollable log of
// the run.
type LogsModel struct {
	names      []string
	progress   []float64
	milestones []int
	entries    []string
	offset     int // lines scrolled up from the bottom
	keymap     KeyMap
	width      int
	height     int
}

// NewLogsModel creates the log panel for the given counter names.
func NewLogsModel(names []string) LogsModel {
	return LogsModel{
		names:      names,
		progress:   make([]float64, len(names)),
		milestones: make([]int, len(names)),
		keymap:     DefaultKeyMap(),
	}
}

// SetSize updates dimensions.
func (l *LogsModel) SetSize(w, h int) {
	l.width = w
	l.height = h
}

func (l *LogsModel) add(line string) {
	ts := styles.muted.Render(time.Now().Format("15:04:05"))
	l.entries = append(l.entries, ts+" "+line)
}

// AddExecutionConfig logs the range and parallelism of the run.
func (l *LogsModel) AddExecutionConfig(cfg config.AppConfig) {
	r := cfg.Range()
	l.add(fmt.Sprintf("Counting primes in %s with %d jobs (%s, timeout %s)",
		r, cfg.Jobs, cfg.Policy, cfg.Timeout))
	for _, name := range l.names {
		l.add("Counter " + styles.info.Render(name))
	}
}

// AddProgressEntry records a progress update and logs each 25% milestone.
func (l *LogsModel) AddProgressEntry(msg ProgressMsg) {
	i := msg.CounterIndex
	if i < 0 || i >= len(l.progress) {
		return
	}
	l.progress[i] = msg.Value
	reached := int(msg.Value * progressMilestones)
	if reached > l.milestones[i] {
		l.milestones[i] = reached
		l.add(fmt.Sprintf("%s %s",
			styles.info.Render(l.names[i]),
			styles.accent.Render(fmt.Sprintf("%3.0f%%", msg.Value*100))))
	}
}

// AddResults logs one line per counter result.
func (l *LogsModel) AddResults(results []orchestration.CountResult) {
	for _, res := range results {
		if res.Err != nil {
			l.add(fmt.Sprintf("%s %s", styles.info.Render(res.Name), styles.failure.Render("FAILED: "+res.Err.Error())))
			continue
		}
		l.add(fmt.Sprintf("%s %s in %s",
			styles.info.Render(res.Name),
			styles.success.Render(format.FormatUint(res.Total)+" primes"),
			format.FormatExecutionDuration(res.Duration)))
	}
}

// AddFinalResult logs the consolidated result.
func (l *LogsModel) AddFinalResult(msg FinalResultMsg) {
	l.add(styles.success.Render(fmt.Sprintf("π%s = %s", msg.Options.Range, format.FormatUint(msg.Result.Total))))
}

// AddError logs a failed run.
func (l *LogsModel) AddError(msg ErrorMsg) {
	l.add(styles.failure.Render(fmt.Sprintf("Error after %s: %v", format.FormatExecutionDuration(msg.Duration), msg.Err)))
}

// Reset clears progress and log entries.
func (l *LogsModel) Reset() {
	l.progress = make([]float64, len(l.names))
	l.milestones = make([]int, len(l.names))
	l.entries = nil
	l.offset = 0
}

// Update scrolls the log.
func (l *LogsModel) Update(msg tea.KeyMsg) {
	page := max(l.height-len(l.names)-3, 1)
	switch {
	case key.Matches(msg, l.keymap.Up):
		l.offset++
	case key.Matches(msg, l.keymap.Down):
		l.offset--
	case key.Matches(msg, l.keymap.PageUp):
		l.offset += page
	case key.Matches(msg, l.keymap.PageDown):
		l.offset -= page
	}
	l.offset = max(0, min(l.offset, len(l.entries)-1))
}

// View renders the panel at its configured height.
func (l LogsModel) View() string {
	return l.renderToHeight(l.height)
}

// renderToHeight renders the panel with an outer height of h lines.
func (l LogsModel) renderToHeight(h int) string {
	inner := max(h-2, 1)
	barWidth := max(l.width-38, 5)

	lines := make([]string, 0, inner)
	for i, name := range l.names {
		lines = append(lines, fmt.Sprintf(" %-28s %s %5.1f%%",
			truncate(name, 28), styles.accent.Render(format.ProgressBar(l.progress[i], barWidth)), l.progress[i]*100))
	}
	if len(l.names) > 0 {
		lines = append(lines, "")
	}

	room := max(inner-len(lines), 0)
	end := len(l.entries) - l.offset
	start := max(end-room, 0)
	for _, e := range l.entries[start:max(end, 0)] {
		lines = append(lines, " "+e)
	}
	if len(lines) > inner {
		lines = lines[:inner]
	}

	return styles.panel.
		Width(max(l.width-2, 0)).
		Height(inner).
		Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
