package wizard

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/tui/theme"
)

// ValidatorModel provides an async validation UI with spinner. The busy and
// success texts are configurable so the same model serves credential saves
// and key checks.
type ValidatorModel struct {
	Spinner    spinner.Model
	Validating bool
	Success    bool
	ErrMsg     string
	BusyText   string
	OKText     string
}

// NewValidator creates a new validator model.
func NewValidator(busyText, okText string) ValidatorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return ValidatorModel{
		Spinner:  s,
		BusyText: busyText,
		OKText:   okText,
	}
}

// Start begins the validation animation.
func (m *ValidatorModel) Start() {
	m.Validating = true
	m.Success = false
	m.ErrMsg = ""
}

// HandleResult processes a validation result.
func (m *ValidatorModel) HandleResult(err error) {
	m.Validating = false
	if err != nil {
		m.Success = false
		m.ErrMsg = err.Error()
	} else {
		m.Success = true
		m.ErrMsg = ""
	}
}

// Reset clears the validator state.
func (m *ValidatorModel) Reset() {
	m.Validating = false
	m.Success = false
	m.ErrMsg = ""
}

// Update handles spinner ticks.
func (m ValidatorModel) Update(msg tea.Msg) (ValidatorModel, tea.Cmd) {
	if m.Validating {
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the validation state.
func (m ValidatorModel) View() string {
	if m.Validating {
		return m.Spinner.View() + " " + m.BusyText
	}
	if m.Success {
		return theme.TextSuccess.Render(theme.SymbolSuccess + " " + m.OKText)
	}
	if m.ErrMsg != "" {
		return theme.TextError.Render(theme.SymbolError+" "+m.ErrMsg) +
			"\n" + theme.TextMuted.Render("  Press Enter to try again")
	}
	return ""
}
