package home

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/backend"
	"reelist/internal/adapter/tui/components"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/adapter/tui/uxerror"
	"reelist/internal/domain"
)

// StatusBackend is the informative server surface the home screen polls.
// Satisfied by the backend client.
type StatusBackend interface {
	Health(ctx context.Context) (string, error)
	AuthStatus(ctx context.Context) (*backend.TraktUser, error)
	BaseURL() string
}

// Deps are the collaborators the home screen reads from.
type Deps struct {
	Backend        StatusBackend
	Prober         domain.ReadinessProber
	History        domain.BuildHistory
	HealthInterval time.Duration
	Logger         *slog.Logger
}

// Model is the Bubble Tea model for the home status screen.
type Model struct {
	deps Deps
	gen  uint64

	signals components.SignalPanelModel

	healthStatus string
	healthErr    string
	user         *backend.TraktUser
	authKnown    bool
	lastRun      *domain.BuildRecord
	enrichment   domain.ReadinessSignal

	// degraded marks a session continued past a confirmed outage; the header
	// says so until a health poll succeeds.
	degraded bool

	confirmRebuild bool

	width  int
	height int
}

// New creates the home model. gen tags this mount's async messages. degraded
// marks a session that continued past a confirmed backend outage.
func New(deps Deps, gen uint64, degraded bool) Model {
	return Model{
		deps:     deps,
		gen:      gen,
		signals:  components.NewSignalPanel(),
		degraded: degraded,
	}
}

// Init starts the poll loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		healthCmd(m.deps.Backend, m.gen),
		authCmd(m.deps.Backend, m.gen),
		probeCmd(m.deps.Prober, m.gen),
		lastRunCmd(m.deps.History),
		tickCmd(m.deps.HealthInterval, m.gen),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		return m, tea.Batch(
			healthCmd(m.deps.Backend, m.gen),
			tickCmd(m.deps.HealthInterval, m.gen),
		)

	case HealthMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		if msg.Err != nil {
			m.healthStatus = ""
			m.healthErr = uxerror.Humanize(msg.Err).Title
			return m, nil
		}
		m.healthStatus = msg.Status
		m.healthErr = ""
		m.degraded = false
		return m, nil

	case AuthMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		if msg.Err == nil {
			m.user = msg.User
			m.authKnown = true
		}
		return m, nil

	case SignalsMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.signals.SetSignals(msg.Set, msg.Enrichment)
		m.enrichment = msg.Enrichment
		return m, nil

	case LastRunMsg:
		m.lastRun = msg.Rec
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmRebuild {
		switch msg.String() {
		case "y", "Y":
			m.confirmRebuild = false
			return m, rebuildCmd()
		case "n", "N", "esc":
			m.confirmRebuild = false
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m, tea.Batch(
			healthCmd(m.deps.Backend, m.gen),
			authCmd(m.deps.Backend, m.gen),
			probeCmd(m.deps.Prober, m.gen),
			lastRunCmd(m.deps.History),
		)
	case "b":
		m.confirmRebuild = true
		return m, nil
	case "s":
		return m, setupCmd()
	}
	return m, nil
}

// View renders the home screen.
func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	if m.confirmRebuild {
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.WizardTitle.Render("Reelist"),
			"",
			theme.Bold.Render("Rebuild the enrichment library?"),
			"",
			"A full rebuild re-fetches metadata for every item and can",
			"take a while on large libraries.",
			"",
			theme.TextInfo.Render("y rebuilds, n cancels"),
		)
	}

	title := theme.WizardTitle.Render("Reelist")
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.healthLine())

	parts := []string{
		header,
		"",
		theme.Bold.Render("Setup"),
		m.signals.View(),
		"",
		theme.Bold.Render("Account"),
		m.accountLine(),
		"",
		theme.Bold.Render("Library"),
		m.libraryLine(),
	}

	sb := components.NewStatusBar()
	sb.BackendURL = m.deps.Backend.BaseURL()
	sb.Hints = []components.KeyHint{
		{Key: "r", Desc: "Refresh"},
		{Key: "b", Desc: "Rebuild"},
		{Key: "s", Desc: "Setup"},
		{Key: "q", Desc: "Quit"},
	}
	sb.SetWidth(m.width)

	parts = append(parts, "", sb.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) healthLine() string {
	switch {
	case m.healthErr != "":
		return theme.TextError.Render(theme.SymbolError + " " + m.healthErr)
	case m.degraded:
		return theme.TextWarning.Render(theme.SymbolWarning + " degraded, data may be stale")
	case m.healthStatus != "":
		return theme.TextSuccess.Render(theme.SymbolSuccess + " server " + m.healthStatus)
	default:
		return theme.TextMuted.Render("checking server...")
	}
}

func (m Model) accountLine() string {
	switch {
	case !m.authKnown:
		return theme.TextMuted.Render("  checking authorization...")
	case m.user == nil:
		return theme.TextWarning.Render("  " + theme.SymbolWarning + " not authorized with Trakt")
	case m.user.Username != "":
		return "  authorized as " + theme.TextInfo.Render(m.user.Username)
	default:
		return "  " + theme.TextSuccess.Render(theme.SymbolSuccess+" authorized with Trakt")
	}
}

func (m Model) libraryLine() string {
	var lines []string
	if !m.enrichment.Satisfied && m.enrichment.Detail != "" {
		lines = append(lines, "  "+theme.TextWarning.Render(theme.SymbolWarning+" "+m.enrichment.Detail))
	}
	if m.lastRun == nil {
		lines = append(lines, theme.TextMuted.Render("  no completed enrichment run yet"))
	} else {
		now := time.Now()
		lines = append(lines, fmt.Sprintf("  last build: %s items in %s, %s",
			theme.StatValue.Render(fmt.Sprintf("%d", m.lastRun.Processed)),
			m.lastRun.Duration().Round(time.Second),
			ago(now, m.lastRun.FinishedAt),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// ago renders a coarse "how long ago" stamp.
func ago(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
