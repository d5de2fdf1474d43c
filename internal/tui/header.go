package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/primes"
)

// runState is the lifecycle stage of a dashboard run.
type runState int

const (
	stateCounting runState = iota
	statePaused
	stateDone
	stateFailed
	stateCount
)

func (s runState) String() string {
	switch s {
	case stateCounting:
		return "COUNTING"
	case statePaused:
		return "PAUSED"
	case stateDone:
		return "DONE"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// HeaderModel renders the top bar. The elapsed clock excludes time spent
// paused and stops when the run finishes.
type HeaderModel struct {
	version  string
	rangeTxt string
	counters int
	width    int

	now       func() time.Time
	started   time.Time
	stopped   time.Time
	pausedAt  time.Time
	pausedFor time.Duration
}

// NewHeaderModel creates a header for a run over r with the given number of
// counters.
func NewHeaderModel(version string, r primes.Range, counters int) HeaderModel {
	h := HeaderModel{
		version:  version,
		rangeTxt: r.String(),
		counters: counters,
		now:      time.Now,
	}
	h.started = h.now()
	return h
}

// SetDone stops the clock.
func (h *HeaderModel) SetDone() {
	if h.stopped.IsZero() {
		h.stopped = h.now()
	}
}

// SetPaused freezes or resumes the clock.
func (h *HeaderModel) SetPaused(paused bool) {
	switch {
	case paused && h.pausedAt.IsZero():
		h.pausedAt = h.now()
	case !paused && !h.pausedAt.IsZero():
		h.pausedFor += h.now().Sub(h.pausedAt)
		h.pausedAt = time.Time{}
	}
}

// Reset restarts the clock for a new run.
func (h *HeaderModel) Reset() {
	h.started = h.now()
	h.stopped = time.Time{}
	h.pausedAt = time.Time{}
	h.pausedFor = 0
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// Elapsed returns the active counting time of the current run.
func (h HeaderModel) Elapsed() time.Duration {
	end := h.now()
	if !h.stopped.IsZero() {
		end = h.stopped
	}
	if !h.pausedAt.IsZero() && h.pausedAt.Before(end) {
		end = h.pausedAt
	}
	return max(end.Sub(h.started)-h.pausedFor, 0)
}

// View renders the header.
func (h HeaderModel) View() string {
	name := "primecount"
	if h.version != "" && h.version != "dev" {
		name += " " + h.version
	}
	plural := "s"
	if h.counters == 1 {
		plural = ""
	}

	left := styles.title.Render(name) + "  " +
		styles.muted.Render(fmt.Sprintf("π%s, %d counter%s", h.rangeTxt, h.counters, plural))
	right := styles.accent.Render(format.FormatExecutionDuration(h.Elapsed()))

	gap := max(h.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styles.header.Width(h.width).Render(left + strings.Repeat(" ", gap) + right)
}
