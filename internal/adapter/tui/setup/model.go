package setup

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reelist/internal/adapter/callback"
	"reelist/internal/adapter/tui/components"
	"reelist/internal/adapter/tui/components/wizard"
	"reelist/internal/adapter/tui/theme"
	"reelist/internal/adapter/tui/uxerror"
	"reelist/internal/domain"
	"reelist/internal/infra/config"
	"reelist/internal/usecase"
)

// Deps are the collaborators the wizard drives. The callback listener is
// created lazily from Callback when the authorize phase first needs it.
type Deps struct {
	Setup    *usecase.SetupService
	Broker   *usecase.Broker
	Callback config.CallbackConfig
	Logger   *slog.Logger
}

// WizardModel is the root Bubble Tea model for the first-run wizard.
type WizardModel struct {
	deps Deps

	// Phase management
	phase Phase
	steps wizard.StepIndicatorModel

	// Sub-models
	field     wizard.FormFieldModel
	validator wizard.ValidatorModel
	spinner   spinner.Model
	signals   components.SignalPanelModel

	// Credential entry walks one field at a time.
	cred  credField
	draft domain.CredentialDraft

	// Authorization state
	listener   *callback.Listener
	listenerUp bool
	awaiting   bool
	pasteMode  bool
	exchanging bool
	authURL    string
	listenNote string
	denied     string

	// Validation state
	budget     usecase.RollbackBudget
	rollback   string
	awaitRetry bool
	stuck      bool
	validated  bool

	// Latest probe snapshot
	set        domain.SignalSet
	enrichment domain.ReadinessSignal
	haveSet    bool
	reroute    bool

	friendly  *uxerror.FriendlyError
	cancelled bool
	width     int
	height    int
}

// NewWizardModel creates the wizard model.
func NewWizardModel(deps Deps) WizardModel {
	phases := AllPhases()
	var steps []wizard.Step
	for _, p := range phases {
		steps = append(steps, wizard.Step{Name: p.Name})
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return WizardModel{
		deps:    deps,
		phase:   PhaseWelcome,
		steps:   wizard.NewStepIndicator(steps),
		spinner: s,
		signals: components.NewSignalPanel(),
	}
}

// Cancelled reports whether the user cancelled the wizard.
func (m WizardModel) Cancelled() bool {
	return m.cancelled
}

// Init initializes the wizard.
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, probeCmd(m.deps.Setup))
}

// Update handles messages.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.steps.SetWidth(theme.Clamp(m.width-4, 20, theme.MaxContentWidth))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Batch(stopListenerCmd(m.listener), doneCmd(true))
		case tea.KeyEsc:
			return m.back()
		}

	case SignalsMsg:
		m.set = msg.Set
		m.enrichment = msg.Enrichment
		m.haveSet = true
		m.signals.SetSignals(msg.Set, msg.Enrichment)
		if m.reroute {
			m.reroute = false
			return m.enterPhase(phaseForStep(domain.ComputeStep(m.set, m.validated)))
		}
		return m, nil

	case SubmitResultMsg:
		if msg.Err != nil {
			m.validator.HandleResult(errors.New(uxerror.Humanize(msg.Err).Message))
			return m, nil
		}
		m.validator.HandleResult(nil)
		m.draft.Clear()
		m.reroute = true
		return m, probeCmd(m.deps.Setup)

	case KeyResultMsg:
		if msg.Err != nil {
			m.validator.HandleResult(errors.New(uxerror.Humanize(msg.Err).Message))
			return m, nil
		}
		m.validator.HandleResult(nil)
		m.reroute = true
		return m, probeCmd(m.deps.Setup)

	case PendingReturnMsg:
		if m.phase != PhaseAuthorize || m.exchanging {
			return m, nil
		}
		if _, ok := domain.ExtractTicket(msg.Loc); ok {
			m.exchanging = true
			return m, consumeCmd(m.deps.Broker, msg.Loc)
		}
		return m.armAuthorize()

	case ListenerReadyMsg:
		if msg.Err != nil {
			m.listenerUp = false
			m.listenNote = uxerror.Humanize(msg.Err).Title
			return m, authorizeCmd(m.deps.Broker)
		}
		m.listenerUp = true
		m.awaiting = true
		return m, tea.Batch(authorizeCmd(m.deps.Broker), awaitReturnCmd(m.listener))

	case AuthURLMsg:
		if msg.Err != nil {
			fe := uxerror.Humanize(msg.Err)
			m.friendly = &fe
			return m, nil
		}
		m.authURL = msg.URL
		return m, openBrowserCmd(msg.URL)

	case BrowserOpenedMsg:
		if msg.Err != nil {
			m.listenNote = "Could not launch a browser; open the URL manually."
		}
		return m, nil

	case ReturnMsg:
		m.awaiting = false
		m.exchanging = true
		m.denied = ""
		m.friendly = nil
		return m, consumeCmd(m.deps.Broker, msg.Loc)

	case ConsumeResultMsg:
		return m.handleConsume(msg)

	case ValidateResultMsg:
		return m.handleValidate(msg)
	}

	// Delegate to phase-specific update.
	switch m.phase {
	case PhaseWelcome:
		return m.updateWelcome(msg)
	case PhaseCredentials:
		return m.updateForm(msg, m.submitCredentialField)
	case PhaseKey:
		return m.updateForm(msg, m.submitKeyField)
	case PhaseAuthorize:
		return m.updateAuthorize(msg)
	case PhaseValidating:
		return m.updateValidating(msg)
	case PhaseCompletion:
		return m.updateCompletion(msg)
	}

	return m, nil
}

// View renders the current phase.
func (m WizardModel) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	title := theme.WizardTitle.Render("Reelist Setup")
	stepView := m.steps.View()

	var content string
	switch m.phase {
	case PhaseWelcome:
		content = m.viewWelcome()
	case PhaseCredentials:
		content = m.viewCredentials()
	case PhaseKey:
		content = m.viewKey()
	case PhaseAuthorize:
		content = m.viewAuthorize()
	case PhaseValidating:
		content = m.viewValidating()
	case PhaseCompletion:
		content = m.viewCompletion()
	}

	sb := components.NewStatusBar()
	sb.Hints = m.keyHints()
	sb.SetWidth(m.width)
	footer := sb.View()

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		stepView,
		"",
		content,
		"",
		footer,
	)
}

// --- Phase navigation ---

// enterPhase switches phases and arms the async work each phase needs.
func (m WizardModel) enterPhase(p Phase) (tea.Model, tea.Cmd) {
	m.phase = p
	m.steps.SetCurrent(int(p))
	m.friendly = nil
	m.pasteMode = false

	switch p {
	case PhaseCredentials:
		m.cred = credClientID
		m.draft.Clear()
		m.field = m.credentialField(credClientID)
		m.validator = wizard.NewValidator("Saving credentials...", "Credentials saved")

	case PhaseKey:
		fld := wizard.NewSecretField("TMDB API key", "32-character key")
		fld.Description = "Create one at themoviedb.org/settings/api"
		m.field = fld
		m.validator = wizard.NewValidator("Checking key with the server...", "Key accepted")

	case PhaseAuthorize:
		m.authURL = ""
		m.denied = ""
		m.exchanging = false
		// A restart may have interrupted the handshake mid-return; check the
		// session file before minting a new authorization.
		return m, tea.Batch(m.spinner.Tick, resumePendingCmd(m.deps.Broker))

	case PhaseValidating:
		m.awaitRetry = false
		return m, tea.Batch(m.spinner.Tick, validateCmd(m.deps.Setup))

	case PhaseCompletion:
		l := m.listener
		m.listener = nil
		m.listenerUp = false
		return m, tea.Batch(stopListenerCmd(l), probeCmd(m.deps.Setup))
	}

	return m, nil
}

// armAuthorize starts the callback listener and asks the server for the
// authorization URL. Runs once the pending-return check came back empty.
func (m WizardModel) armAuthorize() (tea.Model, tea.Cmd) {
	if !m.listenerUp {
		// Fresh listener per wizard mount; a prior bind failure gets a
		// second chance on re-entry.
		m.listener = callback.New(m.deps.Callback, m.deps.Logger)
		return m, startListenerCmd(m.listener)
	}
	return m, authorizeCmd(m.deps.Broker)
}

// back handles Esc: leave paste mode, step back a credential field, or move
// to the previous phase. Esc on the welcome screen cancels the wizard.
func (m WizardModel) back() (tea.Model, tea.Cmd) {
	if m.pasteMode {
		m.pasteMode = false
		return m, nil
	}

	switch m.phase {
	case PhaseWelcome:
		m.cancelled = true
		return m, tea.Batch(stopListenerCmd(m.listener), doneCmd(true))
	case PhaseCredentials:
		if m.cred > credClientID {
			m.cred--
			m.field = m.credentialField(m.cred)
			return m, nil
		}
		return m.enterPhase(PhaseWelcome)
	case PhaseKey:
		return m.enterPhase(PhaseCredentials)
	case PhaseAuthorize:
		return m.enterPhase(PhaseKey)
	case PhaseValidating:
		if m.stuck {
			m.cancelled = true
			return m, tea.Batch(stopListenerCmd(m.listener), doneCmd(true))
		}
		return m, nil
	case PhaseCompletion:
		return m, doneCmd(false)
	}
	return m, nil
}

// --- Result handlers ---

func (m WizardModel) handleConsume(msg ConsumeResultMsg) (tea.Model, tea.Cmd) {
	m.exchanging = false

	switch msg.Outcome {
	case usecase.ConsumeExchanged, usecase.ConsumeAlreadyDone:
		// Re-probe so the signal panel reflects the fresh authorization
		// while the validate call runs.
		next, cmd := m.enterPhase(PhaseValidating)
		return next, tea.Batch(cmd, probeCmd(m.deps.Setup))

	case usecase.ConsumeFailed:
		fe := uxerror.Humanize(msg.Err)
		m.friendly = &fe
		return m, m.rearmAwait()

	default: // nothing to consume: a denial or a stray visit
		m.denied = msg.Denied
		return m, m.rearmAwait()
	}
}

// rearmAwait re-issues the blocking wait for the next callback visit. At most
// one waiter runs at a time.
func (m *WizardModel) rearmAwait() tea.Cmd {
	if !m.listenerUp || m.awaiting {
		return nil
	}
	m.awaiting = true
	return awaitReturnCmd(m.listener)
}

func (m WizardModel) handleValidate(msg ValidateResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		fe := uxerror.Humanize(msg.Err)
		m.friendly = &fe
		m.awaitRetry = true
		return m, nil
	}

	if msg.Outcome.Valid {
		m.validated = true
		m.rollback = ""
		return m.enterPhase(PhaseCompletion)
	}

	if !m.budget.Spend() {
		m.stuck = true
		return m, nil
	}

	step := msg.Outcome.RollbackStep()
	m.rollback = fmt.Sprintf("Server reports %s incomplete (%d retries left)",
		strings.ToLower(step.String()), m.budget.Remaining())
	if step == domain.StepValidating {
		// Server said invalid without naming a prerequisite; let the user
		// decide when to retry instead of looping the budget away.
		m.awaitRetry = true
		return m, nil
	}
	return m.enterPhase(phaseForStep(step))
}

// --- Phase updates ---

func (m WizardModel) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		if !m.haveSet {
			m.reroute = true
			return m, probeCmd(m.deps.Setup)
		}
		return m.enterPhase(phaseForStep(domain.ComputeStep(m.set, m.validated)))
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// updateForm drives the shared field-plus-validator loop of the credential
// and key phases. submit runs when the active field is submitted.
func (m WizardModel) updateForm(msg tea.Msg, submit func(string) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wizard.FieldSubmitMsg:
		return submit(msg.Value)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.validator, cmd = m.validator.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m WizardModel) submitCredentialField(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		m.field.SetError("this field cannot be empty")
		return m, nil
	}
	m.field.ClearError()

	switch m.cred {
	case credClientID:
		m.draft.ClientID = value
		m.cred = credClientSecret
		m.field = m.credentialField(credClientSecret)
		return m, nil
	case credClientSecret:
		m.draft.ClientSecret = value
		m.cred = credRedirectHost
		m.field = m.credentialField(credRedirectHost)
		return m, nil
	default:
		m.draft.RedirectHost = value
		m.validator.Start()
		return m, tea.Batch(m.validator.Spinner.Tick, submitCredentialsCmd(m.deps.Setup, m.draft))
	}
}

func (m WizardModel) submitKeyField(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		m.field.SetError("API key cannot be empty")
		return m, nil
	}
	m.field.ClearError()
	m.validator.Start()
	return m, tea.Batch(m.validator.Spinner.Tick, submitKeyCmd(m.deps.Setup, value))
}

func (m WizardModel) updateAuthorize(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wizard.FieldSubmitMsg:
		if !m.pasteMode {
			return m, nil
		}
		loc := domain.Location(strings.TrimSpace(msg.Value))
		if loc == "" {
			return m, nil
		}
		m.pasteMode = false
		m.exchanging = true
		m.denied = ""
		m.friendly = nil
		return m, consumeCmd(m.deps.Broker, loc)

	case tea.KeyMsg:
		if m.pasteMode {
			var cmd tea.Cmd
			m.field, cmd = m.field.Update(msg)
			return m, cmd
		}
		switch {
		case msg.Type == tea.KeyEnter && (m.friendly != nil || m.denied != ""):
			// The previous code is spent; mint a fresh authorization. After a
			// failed session-file resume the listener was never armed, so
			// arming falls to here.
			m.friendly = nil
			m.denied = ""
			m.authURL = ""
			if !m.listenerUp {
				return m.armAuthorize()
			}
			return m, tea.Batch(m.spinner.Tick, authorizeCmd(m.deps.Broker))
		case msg.Type == tea.KeyEnter && m.authURL != "":
			return m, openBrowserCmd(m.authURL)
		case msg.String() == "p":
			m.pasteMode = true
			fld := wizard.NewTextField("Paste the full redirect URL", "http://media-box:8585/callback?code=...")
			fld.Description = "Copy it from the browser address bar after authorizing"
			m.field = fld
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.pasteMode {
		var cmd tea.Cmd
		m.field, cmd = m.field.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WizardModel) updateValidating(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.stuck {
			if msg.String() == "c" {
				return m, tea.Batch(stopListenerCmd(m.listener), continueAnywayCmd())
			}
			return m, nil
		}
		if msg.Type == tea.KeyEnter && m.awaitRetry {
			m.awaitRetry = false
			m.friendly = nil
			return m, tea.Batch(m.spinner.Tick, validateCmd(m.deps.Setup))
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WizardModel) updateCompletion(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		return m, doneCmd(false)
	}
	return m, nil
}

// --- Field builders ---

func (m WizardModel) credentialField(f credField) wizard.FormFieldModel {
	switch f {
	case credClientID:
		fld := wizard.NewTextField("Trakt client ID", "64-character hex ID")
		fld.Description = "From your app at trakt.tv/oauth/applications"
		if m.draft.ClientID != "" {
			fld.Input.SetValue(m.draft.ClientID)
			fld.Input.CursorEnd()
		}
		return fld
	case credClientSecret:
		return wizard.NewSecretField("Trakt client secret", "64-character hex secret")
	default:
		host := m.deps.Callback.Host
		if m.deps.Callback.Port != 0 {
			host = fmt.Sprintf("%s:%d", host, m.deps.Callback.Port)
		}
		if m.draft.RedirectHost != "" {
			host = m.draft.RedirectHost
		}
		fld := wizard.NewPrefilledField("Redirect host", host)
		fld.Description = "Must match the redirect URI registered with your Trakt app"
		return fld
	}
}

// --- Phase views ---

func (m WizardModel) viewWelcome() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.Bold.Render("Welcome to Reelist!"),
		"",
		"This wizard connects your media server to Trakt and TMDB.",
		"",
		m.signals.View(),
		"",
		theme.TextMuted.Render("What you'll configure:"),
		"  "+theme.SymbolBullet+" Trakt application credentials",
		"  "+theme.SymbolBullet+" A TMDB API key for artwork and metadata",
		"  "+theme.SymbolBullet+" One-time Trakt account authorization",
		"",
		theme.TextInfo.Render("Press Enter to begin"),
	)
}

func (m WizardModel) viewCredentials() string {
	parts := []string{
		theme.TextMuted.Render(fmt.Sprintf("Field %d of 3", int(m.cred)+1)),
		"",
		m.field.View(),
	}
	if m.validator.Validating || m.validator.Success || m.validator.ErrMsg != "" {
		parts = append(parts, "", m.validator.View())
	}
	if m.rollback != "" {
		parts = append(parts, "", theme.TextWarning.Render(theme.SymbolWarning+" "+m.rollback))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m WizardModel) viewKey() string {
	parts := []string{
		m.field.View(),
	}
	if m.validator.Validating || m.validator.Success || m.validator.ErrMsg != "" {
		parts = append(parts, "", m.validator.View())
	}
	if m.rollback != "" {
		parts = append(parts, "", theme.TextWarning.Render(theme.SymbolWarning+" "+m.rollback))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m WizardModel) viewAuthorize() string {
	if m.pasteMode {
		return m.field.View()
	}

	var parts []string
	switch {
	case m.exchanging:
		parts = append(parts, m.spinner.View()+" Exchanging authorization code...")
	case m.friendly != nil:
		parts = append(parts, m.friendly.Render(),
			theme.TextInfo.Render("Press Enter to request a new authorization"))
	case m.denied != "":
		parts = append(parts,
			theme.TextWarning.Render(theme.SymbolWarning+" Authorization was denied: "+m.denied),
			"",
			theme.TextInfo.Render("Press Enter to try again"))
	case m.authURL == "":
		parts = append(parts, m.spinner.View()+" Requesting authorization URL...")
	default:
		parts = append(parts,
			theme.Bold.Render("Authorize with Trakt"),
			"",
			"A browser window should have opened. If not, visit:",
			"  "+theme.TextInfo.Render(m.authURL),
			"")
		if m.listenerUp {
			parts = append(parts,
				m.spinner.View()+" Waiting for the redirect on "+m.listener.BoundAddr()+"...")
		} else {
			note := m.listenNote
			if note == "" {
				note = "Callback listener unavailable"
			}
			parts = append(parts,
				theme.TextWarning.Render(theme.SymbolWarning+" "+note),
				theme.TextMuted.Render("  Press p to paste the redirect URL manually"))
		}
		parts = append(parts, "",
			theme.TextMuted.Render("Enter reopens the browser, p pastes the redirect URL"))
	}

	if m.rollback != "" {
		parts = append(parts, "", theme.TextWarning.Render(theme.SymbolWarning+" "+m.rollback))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m WizardModel) viewValidating() string {
	if m.stuck {
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.TextError.Render(theme.SymbolError+" Setup validation keeps failing"),
			"",
			"The server rejected the configuration several times in a row.",
			"",
			"  "+theme.SymbolBullet+" Check the server logs for configuration errors",
			"  "+theme.SymbolBullet+" Run "+theme.TextInfo.Render("reelist doctor")+" for a local diagnosis",
			"",
			theme.TextWarning.Render(theme.SymbolWarning+" Continuing now leaves recommendations degraded until setup is fixed"),
			"",
			theme.TextMuted.Render("Press c to continue anyway, Esc to leave setup"),
		)
	}
	if m.friendly != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.friendly.Render(),
			"",
			theme.TextInfo.Render("Press Enter to retry validation"),
		)
	}
	if m.awaitRetry {
		parts := []string{}
		if m.rollback != "" {
			parts = append(parts, theme.TextWarning.Render(theme.SymbolWarning+" "+m.rollback), "")
		}
		parts = append(parts, theme.TextInfo.Render("Press Enter to retry validation"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return m.spinner.View() + " Validating setup with the server..."
}

func (m WizardModel) viewCompletion() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.TextSuccess.Render(theme.SymbolSuccess+" Setup Complete!"),
		"",
		m.signals.View(),
		"",
		theme.Bold.Render("Next steps:"),
		"  1. The library enrichment build starts automatically",
		"  2. Run "+theme.TextInfo.Render("reelist")+" any time to open the dashboard",
		"  3. Run "+theme.TextInfo.Render("reelist doctor")+" if anything looks off",
		"",
		theme.TextInfo.Render("Press Enter to continue"),
	)
}

// --- Footer hints ---

func (m WizardModel) keyHints() []components.KeyHint {
	switch m.phase {
	case PhaseAuthorize:
		if m.pasteMode {
			return []components.KeyHint{
				{Key: "Enter", Desc: "Submit"},
				{Key: "Esc", Desc: "Back"},
				{Key: "Ctrl+C", Desc: "Quit"},
			}
		}
		return []components.KeyHint{
			{Key: "Enter", Desc: "Open browser"},
			{Key: "p", Desc: "Paste URL"},
			{Key: "Esc", Desc: "Back"},
			{Key: "Ctrl+C", Desc: "Quit"},
		}
	case PhaseCompletion:
		return []components.KeyHint{
			{Key: "Enter", Desc: "Continue"},
		}
	default:
		return []components.KeyHint{
			{Key: "Enter", Desc: "Next"},
			{Key: "Esc", Desc: "Back"},
			{Key: "Ctrl+C", Desc: "Quit"},
		}
	}
}
