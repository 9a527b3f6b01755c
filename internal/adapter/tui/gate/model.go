package gate

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/tui/components"
	"reelist/internal/adapter/tui/home"
	"reelist/internal/adapter/tui/monitor"
	"reelist/internal/adapter/tui/setup"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/domain"
	"reelist/internal/usecase"
)

// Ensure RootModel satisfies tea.Model.
var _ tea.Model = RootModel{}

// Deps are the collaborators of the gate and its hosted screens.
type Deps struct {
	Prober      domain.ReadinessProber
	BreakerOpen func() bool
	Setup       setup.Deps
	Monitor     monitor.Deps
	Home        home.Deps
	Logger      *slog.Logger
}

// RootModel is the top-level Bubble Tea model. It routes between the setup
// wizard, the build monitor, the home screen, and the unreachable screen,
// remounting a fresh child on every switch. gen tags each mount so async
// messages from a previous child are discarded.
type RootModel struct {
	deps Deps

	screen Screen
	child  tea.Model
	gen    uint64

	// start forces the first routed screen (the setup subcommand). Cleared
	// after the first route.
	start Screen

	// continued is sticky for the session: once the user chooses to continue
	// past a confirmed outage, routing stops bouncing back to unreachable.
	continued bool

	outage  domain.SignalSet
	probing bool

	spinner  spinner.Model
	toast    components.ToastModel
	toastSeq uint64

	helpOpen   bool
	helpView   string
	helpStatus string

	width    int
	height   int
	lastSize tea.WindowSizeMsg
	haveSize bool
}

// NewRootModel creates the gate. start forces the first routed screen;
// ScreenLoading lets the probe decide.
func NewRootModel(deps Deps, start Screen) RootModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return RootModel{
		deps:    deps,
		screen:  ScreenLoading,
		start:   start,
		spinner: s,
		toast:   components.NewToast(),
	}
}

// Init kicks off the routing probe.
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, probeCmd(m.deps.Prober, m.gen))
}

// Update handles messages.
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lastSize = msg
		m.haveSize = true
		m.toast.SetWidth(msg.Width)
		if m.helpOpen {
			m.helpView = renderHelp(m.width)
		}
		return m.forward(msg)

	case tea.KeyMsg:
		if m.helpOpen {
			switch msg.String() {
			case "?", "f1", "esc", "q":
				m.helpOpen = false
			}
			return m, nil
		}
		// The wizard owns its runes, so '?' stays out of its way. F1 is not
		// a rune and opens help everywhere. Opening also re-probes: the
		// result only fills the overlay's status block, it never routes.
		if msg.String() == "f1" || (msg.String() == "?" && m.screen != ScreenSetup) {
			m.helpOpen = true
			m.helpView = renderHelp(m.width)
			m.helpStatus = ""
			return m, helpProbeCmd(m.deps.Prober, m.gen)
		}
		if m.screen == ScreenUnreachable {
			return m.handleUnreachableKey(msg)
		}
		return m.forward(msg)

	case SignalsMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		return m.route(msg.Set, msg.Enrichment)

	case HelpSignalsMsg:
		if msg.Gen == m.gen && m.helpOpen {
			m.helpStatus = renderHelpStatus(msg.Set, msg.Enrichment)
		}
		return m, nil

	case RetryTickMsg:
		if msg.Gen != m.gen || m.screen != ScreenUnreachable {
			return m, nil
		}
		m.probing = true
		return m, tea.Batch(probeCmd(m.deps.Prober, m.gen), retryTickCmd(m.gen))

	case setup.WizardDoneMsg:
		if msg.Cancelled {
			return m, tea.Quit
		}
		if msg.Continued {
			// Signals are still unsatisfied, so a remount would route right
			// back into the wizard. Mount home degraded, as the outage
			// screen's continue key does.
			cmd := m.showToast(components.ToastWarning, "Continuing with incomplete setup")
			next, mountCmd := m.mountHome(true)
			return next, tea.Batch(cmd, mountCmd)
		}
		cmd := m.showToast(components.ToastSuccess, "Setup complete")
		next, probe := m.remount()
		return next, tea.Batch(cmd, probe)

	case monitor.DoneMsg:
		var cmd tea.Cmd
		switch {
		case msg.Skipped:
			cmd = m.showToast(components.ToastInfo, "Enrichment skipped")
		case msg.Outcome == domain.BuildComplete:
			cmd = m.showToast(components.ToastSuccess, "Enrichment complete")
		case msg.Outcome == domain.BuildPartial:
			cmd = m.showToast(components.ToastWarning, "Enrichment finished with gaps")
		}
		next, mountCmd := m.mountHome(false)
		return next, tea.Batch(cmd, mountCmd)

	case home.RebuildRequestMsg:
		return m.mountMonitor(true)

	case home.SetupRequestMsg:
		return m.mountSetup()

	case ToastExpireMsg:
		if msg.Seq == m.toastSeq {
			m.toast.Hide()
		}
		return m, nil

	case spinner.TickMsg:
		if m.screen == ScreenLoading || m.screen == ScreenUnreachable {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m.forward(msg)
	}

	return m.forward(msg)
}

// forward delegates a message to the active child screen.
func (m RootModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.child == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.child, cmd = m.child.Update(msg)
	return m, cmd
}

// route applies the screen decision for a fresh probe snapshot.
func (m RootModel) route(set domain.SignalSet, enrichment domain.ReadinessSignal) (tea.Model, tea.Cmd) {
	m.probing = false

	breakerOpen := false
	if m.deps.BreakerOpen != nil {
		breakerOpen = m.deps.BreakerOpen()
	}
	decision := DecideScreen(set, enrichment, breakerOpen, m.continued)

	if m.start == ScreenSetup && decision != ScreenUnreachable {
		decision = ScreenSetup
	}
	m.start = ScreenLoading

	m.deps.Logger.Info("screen routed", "screen", decision.String())

	switch decision {
	case ScreenSetup:
		return m.mountSetup()
	case ScreenMonitor:
		return m.mountMonitor(false)
	case ScreenHome:
		return m.mountHome(m.continued && usecase.ContinueAnywayEligible(set, breakerOpen))
	default: // unreachable
		alreadyRetrying := m.screen == ScreenUnreachable
		m.screen = ScreenUnreachable
		m.child = nil
		m.outage = set
		if alreadyRetrying {
			// The retry tick chain is already running.
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, retryTickCmd(m.gen))
	}
}

// remount drops the current child and probes for a fresh routing decision.
func (m RootModel) remount() (tea.Model, tea.Cmd) {
	m.gen++
	m.screen = ScreenLoading
	m.child = nil
	return m, tea.Batch(m.spinner.Tick, probeCmd(m.deps.Prober, m.gen))
}

func (m RootModel) mountSetup() (tea.Model, tea.Cmd) {
	m.gen++
	m.screen = ScreenSetup
	child := setup.NewWizardModel(m.deps.Setup)
	m.child = child
	return m.afterMount(child.Init())
}

func (m RootModel) mountMonitor(force bool) (tea.Model, tea.Cmd) {
	m.gen++
	m.screen = ScreenMonitor
	child := monitor.New(m.deps.Monitor, m.gen, force)
	m.child = child
	return m.afterMount(child.Init())
}

func (m RootModel) mountHome(degraded bool) (tea.Model, tea.Cmd) {
	m.gen++
	m.screen = ScreenHome
	child := home.New(m.deps.Home, m.gen, degraded)
	m.child = child
	return m.afterMount(child.Init())
}

// afterMount replays the last window size to the fresh child and batches its
// Init command.
func (m RootModel) afterMount(init tea.Cmd) (tea.Model, tea.Cmd) {
	if !m.haveSize {
		return m, init
	}
	var cmd tea.Cmd
	m.child, cmd = m.child.Update(m.lastSize)
	return m, tea.Batch(init, cmd)
}

func (m RootModel) handleUnreachableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.probing = true
		return m, probeCmd(m.deps.Prober, m.gen)
	case "c":
		m.continued = true
		return m.mountHome(true)
	}
	return m, nil
}

// showToast replaces the visible toast and arms its expiry timer.
func (m *RootModel) showToast(level components.ToastLevel, text string) tea.Cmd {
	m.toastSeq++
	m.toast.Show(level, text)
	return toastExpireCmd(m.toastSeq)
}

// View renders the active screen with the toast strip on top.
func (m RootModel) View() string {
	if m.helpOpen {
		if m.helpStatus != "" {
			return m.helpView + "\n" + m.helpStatus + "\n"
		}
		return m.helpView
	}

	var content string
	switch m.screen {
	case ScreenLoading:
		content = "\n  " + m.spinner.View() + " Checking server readiness..."
	case ScreenUnreachable:
		content = m.viewUnreachable()
	default:
		if m.child != nil {
			content = m.child.View()
		}
	}

	if m.toast.Visible() {
		return lipgloss.JoinVertical(lipgloss.Left, m.toast.View(), content)
	}
	return content
}

func (m RootModel) viewUnreachable() string {
	lines := []string{
		theme.TextError.Render(theme.SymbolError + " Server Unreachable"),
		"",
		"The Reelist server did not answer any readiness probe. Setup",
		"cannot tell an unconfigured server from a dead one, so it stops",
		"here instead of asking you to re-enter settings it may already have.",
		"",
	}

	for _, sig := range []domain.ReadinessSignal{m.outage.Credentials, m.outage.Key, m.outage.Auth} {
		if sig.Detail != "" {
			lines = append(lines, "  "+theme.TextMuted.Render(theme.SymbolError+" "+string(sig.Name)+": "+sig.Detail))
		}
	}

	lines = append(lines, "")
	if m.probing {
		lines = append(lines, "  "+m.spinner.View()+" retrying...")
	} else {
		lines = append(lines, theme.TextMuted.Render("  retrying automatically every few seconds"))
	}
	lines = append(lines, "")

	sb := components.NewStatusBar()
	sb.Hints = []components.KeyHint{
		{Key: "r", Desc: "Retry now"},
		{Key: "c", Desc: "Continue anyway"},
		{Key: "q", Desc: "Quit"},
	}
	sb.SetWidth(m.width)
	lines = append(lines, sb.View())

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
