package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/primecount/internal/ui"
)

// styleSet holds every lipgloss style the dashboard renders with. Styles are
// grouped by role rather than by panel so that panels sharing a role share a
// color.
type styleSet struct {
	panel  lipgloss.Style
	header lipgloss.Style
	title  lipgloss.Style

	muted   lipgloss.Style
	accent  lipgloss.Style
	strong  lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style

	// state badges, indexed by runState.
	state [stateCount]lipgloss.Style

	cpuSpark  lipgloss.Style
	memSpark  lipgloss.Style
	rateSpark lipgloss.Style
}

// styles is rebuilt by initTUIStyles whenever the ui theme changes.
var styles = newStyleSet(ui.GetCurrentTUITheme())

func initTUIStyles() {
	styles = newStyleSet(ui.GetCurrentTUITheme())
}

func newStyleSet(t ui.TUITheme) styleSet {
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	bold := func(c lipgloss.TerminalColor) lipgloss.Style {
		return fg(c).Bold(true)
	}

	s := styleSet{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Foreground(t.Text),
		header:    bold(t.Accent).Padding(0, 1),
		title:     bold(t.Accent),
		muted:     fg(t.Dim),
		accent:    fg(t.Accent),
		strong:    bold(t.Accent),
		info:      fg(t.Info),
		success:   fg(t.Success),
		failure:   fg(t.Error),
		cpuSpark:  fg(t.Accent),
		memSpark:  fg(t.Warning),
		rateSpark: fg(t.Info),
	}
	s.state[stateCounting] = bold(t.Success)
	s.state[statePaused] = bold(t.Warning)
	s.state[stateDone] = bold(t.Accent)
	s.state[stateFailed] = bold(t.Error)
	return s
}
