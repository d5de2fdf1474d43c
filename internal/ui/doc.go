// Package ui holds the color themes shared by the CLI and the TUI. CLI output
// uses ANSI escape codes through the Color* helpers; the TUI uses lipgloss
// colors from TUITheme.
package ui
