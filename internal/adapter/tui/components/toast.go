package components

import (
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/tui/theme"
)

// ToastLevel selects the toast's color and symbol.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// ToastModel renders a transient one-line notice. The owner decides when to
// hide it (typically via a timed message); the model itself keeps no clock.
type ToastModel struct {
	text    string
	level   ToastLevel
	visible bool
	width   int
}

// NewToast creates a hidden toast.
func NewToast() ToastModel {
	return ToastModel{}
}

// Show replaces the current notice. A later Show wins over an earlier one.
func (m *ToastModel) Show(level ToastLevel, text string) {
	m.level = level
	m.text = text
	m.visible = true
}

// Hide clears the notice.
func (m *ToastModel) Hide() {
	m.visible = false
	m.text = ""
}

// Visible reports whether a notice is showing.
func (m ToastModel) Visible() bool { return m.visible }

// SetWidth updates the available width.
func (m *ToastModel) SetWidth(w int) { m.width = w }

// View renders the toast line, empty when hidden.
func (m ToastModel) View() string {
	if !m.visible {
		return ""
	}

	var style lipgloss.Style
	var symbol string
	switch m.level {
	case ToastSuccess:
		style, symbol = theme.ToastSuccess, theme.SymbolSuccess
	case ToastWarning:
		style, symbol = theme.ToastWarning, theme.SymbolWarning
	case ToastError:
		style, symbol = theme.ToastError, theme.SymbolError
	default:
		style, symbol = theme.ToastInfo, theme.SymbolInfo
	}

	text := m.text
	if m.width > 4 && lipgloss.Width(text) > m.width-4 {
		text = text[:m.width-4] + theme.SymbolEllipsis
	}
	return style.Render(symbol + " " + text)
}
