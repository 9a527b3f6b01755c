package monitor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/tui/components"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/adapter/tui/uxerror"
	"reelist/internal/domain"
	"reelist/internal/usecase"
)

// Deps are the collaborators the monitor drives.
type Deps struct {
	Build   domain.BuildBackend
	History domain.BuildHistory
	Poll    time.Duration // status poll cadence
	Grace   time.Duration // hold at 100% before handing off
	Logger  *slog.Logger
}

// Model is the Bubble Tea model for the build monitor screen. Mount a fresh
// one per visit; the per-mount decisions (automatic start, history record,
// completion grace) live in the embedded session.
type Model struct {
	deps    Deps
	session *usecase.MonitorSession
	gen     uint64

	bar     progress.Model
	spinner spinner.Model

	status     domain.BuildJobStatus
	haveStatus bool
	lastRun    *domain.BuildRecord

	// force requests a rebuild regardless of the current job state. Issued
	// once, on the first snapshot.
	force       bool
	forceIssued bool

	// awaitRun suppresses record and grace decisions until the run we just
	// started is actually reported as running, so a stale pre-start snapshot
	// is never recorded as this run's outcome.
	awaitRun    bool
	starting    bool
	startFailed bool
	skipping    bool
	confirmSkip bool

	pollNote string
	friendly *uxerror.FriendlyError

	width  int
	height int
}

// New creates the monitor model. gen tags this mount's async messages so a
// host switching screens can discard stragglers. force requests a rebuild
// even when the job already completed.
func New(deps Deps, gen uint64, force bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	session := usecase.NewMonitorSession()
	session.SetGrace(deps.Grace)

	return Model{
		deps:    deps,
		session: session,
		gen:     gen,
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: s,
		force:   force,
	}
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, lastRunCmd(m.deps.History), pollStatusCmd(m.deps.Build, m.gen))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := theme.Clamp(m.width-20, 20, theme.MaxContentWidth-20)
		m.bar.Width = w
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		return m, pollStatusCmd(m.deps.Build, m.gen)

	case StatusMsg:
		return m.handleStatus(msg)

	case StartResultMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.starting = false
		if msg.Err != nil {
			m.awaitRun = false
			m.startFailed = true
			fe := uxerror.Humanize(msg.Err)
			m.friendly = &fe
		}
		return m, nil

	case SkipResultMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.skipping = false
		if msg.Err != nil {
			fe := uxerror.Humanize(msg.Err)
			m.friendly = &fe
			return m, nil
		}
		rec := usecase.RecordFrom(m.status, true, time.Now())
		return m, tea.Batch(
			recordRunCmd(m.deps.History, rec),
			doneCmd(m.status.State, true),
		)

	case RecordedMsg:
		if msg.Err != nil {
			m.deps.Logger.Warn("build history record failed", "error", msg.Err)
		}
		return m, nil

	case LastRunMsg:
		m.lastRun = msg.Rec
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmSkip {
		switch msg.String() {
		case "y", "Y":
			m.confirmSkip = false
			m.skipping = true
			return m, skipBuildCmd(m.deps.Build, m.gen)
		case "n", "N", "esc":
			m.confirmSkip = false
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		// Leave the build running server-side; the host screen moves on.
		return m, doneCmd(m.status.State, false)
	case "s":
		if m.status.State != domain.BuildComplete {
			m.confirmSkip = true
		}
		return m, nil
	case "r":
		if m.status.State == domain.BuildError || m.startFailed {
			m.friendly = nil
			m.startFailed = false
			m.starting = true
			m.awaitRun = true
			m.session = m.freshSession()
			return m, tea.Batch(
				startBuildCmd(m.deps.Build, false, m.gen),
				tickCmd(m.deps.Poll, m.gen),
			)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleStatus(msg StatusMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.gen {
		return m, nil
	}
	if msg.Err != nil {
		m.pollNote = uxerror.Humanize(msg.Err).Title
		return m, tickCmd(m.deps.Poll, m.gen)
	}
	m.pollNote = ""
	m.status = msg.Status
	m.haveStatus = true

	if m.awaitRun {
		if msg.Status.State != domain.BuildRunning {
			// Stale snapshot from before the start we just issued.
			return m, tickCmd(m.deps.Poll, m.gen)
		}
		m.awaitRun = false
	}

	var start, force bool
	switch {
	case m.force && !m.forceIssued:
		m.forceIssued = true
		start, force = true, true
	case !m.startFailed && m.session.ShouldStart(msg.Status):
		start = true
	}
	if start {
		m.starting = true
		m.awaitRun = true
		m.session = m.freshSession()
		return m, tea.Batch(
			startBuildCmd(m.deps.Build, force, m.gen),
			tickCmd(m.deps.Poll, m.gen),
		)
	}

	var cmds []tea.Cmd
	if m.session.ShouldRecord(msg.Status) {
		rec := usecase.RecordFrom(msg.Status, false, time.Now())
		cmds = append(cmds, recordRunCmd(m.deps.History, rec))
	}

	switch msg.Status.State {
	case domain.BuildComplete, domain.BuildPartial:
		if m.session.HoldForGrace(msg.Status) {
			cmds = append(cmds, tickCmd(m.deps.Poll, m.gen))
		} else {
			cmds = append(cmds, doneCmd(msg.Status.State, false))
		}
	case domain.BuildError:
		// Hold on the failure view; the user decides whether to retry.
	default:
		cmds = append(cmds, tickCmd(m.deps.Poll, m.gen))
	}

	return m, tea.Batch(cmds...)
}

// freshSession replaces the per-run decision state after a start call, so the
// new run gets its own record and grace.
func (m Model) freshSession() *usecase.MonitorSession {
	s := usecase.NewMonitorSession()
	s.SetGrace(m.deps.Grace)
	return s
}

// View renders the monitor.
func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	title := theme.WizardTitle.Render("Library Enrichment")

	var content string
	switch {
	case m.confirmSkip:
		content = m.viewConfirmSkip()
	case m.friendly != nil:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.friendly.Render(),
			"",
			theme.TextMuted.Render("r retries, Esc continues without enrichment"))
	case m.skipping:
		content = m.spinner.View() + " Skipping enrichment..."
	case !m.haveStatus:
		content = m.spinner.View() + " Checking build status..."
	default:
		content = m.viewStatus()
	}

	sb := components.NewStatusBar()
	sb.Hints = m.keyHints()
	sb.SetWidth(m.width)

	parts := []string{title, "", content}
	if m.pollNote != "" {
		parts = append(parts, "", theme.TextWarning.Render(theme.SymbolWarning+" "+m.pollNote+", retrying..."))
	}
	parts = append(parts, "", sb.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewStatus() string {
	switch m.status.State {
	case domain.BuildError:
		detail := m.status.ErrorDetail
		if detail == "" {
			detail = "the server reported a build failure"
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.TextError.Render(theme.SymbolError+" Build failed"),
			"  "+theme.TextMuted.Render(detail),
			"",
			theme.TextMuted.Render("r retries, s skips enrichment, Esc continues without it"),
		)

	case domain.BuildComplete:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.bar.ViewAs(1.0),
			"",
			theme.TextSuccess.Render(fmt.Sprintf("%s Enrichment complete: %d items", theme.SymbolSuccess, m.status.Processed)),
		)

	case domain.BuildPartial:
		missed := m.status.Total - m.status.Processed
		return lipgloss.JoinVertical(lipgloss.Left,
			m.bar.ViewAs(1.0),
			"",
			theme.TextWarning.Render(fmt.Sprintf("%s Enrichment finished with %d of %d items", theme.SymbolWarning, m.status.Processed, m.status.Total)),
			"  "+theme.TextMuted.Render(fmt.Sprintf("%d items could not be enriched and will show reduced metadata", missed)),
		)

	case domain.BuildRunning:
		return m.viewRunning()

	default: // not started
		if m.starting {
			return m.spinner.View() + " Starting the enrichment build..."
		}
		return theme.TextMuted.Render("The enrichment build has not started yet.")
	}
}

func (m Model) viewRunning() string {
	now := time.Now()

	counts := fmt.Sprintf("%d / %d items", m.status.Processed, m.status.Total)
	if m.status.Total == 0 {
		counts = fmt.Sprintf("%d items", m.status.Processed)
	}
	if eta, ok := m.status.ETA(now); ok {
		counts += "  " + theme.TextMuted.Render("ETA "+eta.Round(time.Second).String())
	}

	parts := []string{
		m.bar.ViewAs(m.status.Percent() / 100),
		"",
		counts,
	}
	if !m.status.StartedAt.IsZero() {
		elapsed := now.Sub(m.status.StartedAt).Round(time.Second)
		parts = append(parts, theme.TextMuted.Render("running for "+elapsed.String()))
	}
	if m.lastRun != nil {
		parts = append(parts, theme.TextMuted.Render(fmt.Sprintf(
			"last run: %d items in %s, %s",
			m.lastRun.Processed,
			m.lastRun.Duration().Round(time.Second),
			ago(now, m.lastRun.FinishedAt),
		)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewConfirmSkip() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Bold.Render("Skip the enrichment build?"),
		"",
		"Reelist works without enrichment, but artwork and extended",
		"metadata will be missing until a build completes.",
		"",
		theme.TextInfo.Render("y skips, n keeps watching"),
	)
}

func (m Model) keyHints() []components.KeyHint {
	if m.confirmSkip {
		return []components.KeyHint{
			{Key: "y", Desc: "Skip"},
			{Key: "n", Desc: "Cancel"},
		}
	}
	hints := []components.KeyHint{}
	if m.status.State == domain.BuildError || m.startFailed {
		hints = append(hints, components.KeyHint{Key: "r", Desc: "Retry"})
	}
	if m.status.State != domain.BuildComplete {
		hints = append(hints, components.KeyHint{Key: "s", Desc: "Skip"})
	}
	hints = append(hints,
		components.KeyHint{Key: "Esc", Desc: "Continue"},
		components.KeyHint{Key: "q", Desc: "Quit"},
	)
	return hints
}

// ago renders a coarse "how long ago" stamp for the last-run hint.
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
