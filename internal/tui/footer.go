package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders the status and the key help line.
type FooterModel struct {
	help     help.Model
	keymap   KeyMap
	width    int
	paused   bool
	done     bool
	hasError bool
}

// NewFooterModel creates a new footer.
func NewFooterModel(keymap KeyMap) FooterModel {
	h := help.New()
	h.Styles.ShortKey = styles.strong
	h.Styles.ShortDesc = styles.muted
	h.Styles.FullKey = styles.strong
	h.Styles.FullDesc = styles.muted
	return FooterModel{help: h, keymap: keymap}
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = w
}

// SetPaused marks the run as paused.
func (f *FooterModel) SetPaused(paused bool) { f.paused = paused }

// SetDone marks the run as finished.
func (f *FooterModel) SetDone(done bool) { f.done = done }

// SetError marks the run as failed.
func (f *FooterModel) SetError(hasError bool) { f.hasError = hasError }

// ToggleHelp switches between the short and the full help.
func (f *FooterModel) ToggleHelp() { f.help.ShowAll = !f.help.ShowAll }

// ShowingFullHelp reports whether the full help is displayed.
func (f FooterModel) ShowingFullHelp() bool { return f.help.ShowAll }

// Height returns the number of lines the footer occupies.
func (f FooterModel) Height() int {
	if f.help.ShowAll {
		return len(f.keymap.FullHelp()[0])
	}
	return footerHeight
}

func (f FooterModel) state() runState {
	switch {
	case f.hasError:
		return stateFailed
	case f.done:
		return stateDone
	case f.paused:
		return statePaused
	default:
		return stateCounting
	}
}

func (f FooterModel) status() string {
	s := f.state()
	return styles.state[s].Render(s.String())
}

// View renders the footer.
func (f FooterModel) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, " ", f.status(), "  ", f.help.View(f.keymap))
}
