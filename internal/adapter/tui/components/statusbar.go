// Package components provides reusable TUI building blocks shared by the
// setup wizard and the status screens.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/tui/theme"
)

// KeyHint represents a single keybinding hint shown in the status bar.
type KeyHint struct {
	Key  string // e.g. "Enter"
	Desc string // e.g. "Submit"
}

// StatusBarModel renders a bottom status bar with keybinding hints on the
// left and connection info on the right.
type StatusBarModel struct {
	Hints      []KeyHint // show the 4-5 most important hints
	BackendURL string
	Extra      string // additional status text (e.g. "reconnecting...")
	width      int
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth updates the available width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single line.
func (m StatusBarModel) View() string {
	// Left side: keybinding hints.
	var hints []string
	for _, h := range m.Hints {
		key := theme.StatusKey.Render(h.Key)
		hints = append(hints, key+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	// Right side: backend connection info.
	var right string
	if m.BackendURL != "" {
		right = theme.TextMuted.Render(m.BackendURL)
	}
	if m.Extra != "" {
		if right != "" {
			right += "  "
		}
		right += theme.TextInfo.Render(m.Extra)
	}

	// Join left and right, padding the gap.
	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)
	gap := m.width - leftW - rightW
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + right
	return theme.StatusBar.Width(m.width).Render(bar)
}
