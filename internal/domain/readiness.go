package domain

// SignalName identifies one of the independently probed readiness signals.
type SignalName string

const (
	SignalTraktCredentials SignalName = "trakt-credentials"
	SignalTMDBKey          SignalName = "tmdb-key"
	SignalTraktAuth        SignalName = "trakt-auth"
	SignalEnrichment       SignalName = "enrichment"
)

// ReadinessSignal is a read-only snapshot of one backend configuration fact.
// Signals are created fresh on every evaluation pass and replaced, never mutated.
type ReadinessSignal struct {
	Name      SignalName
	Satisfied bool
	Detail    string // fallback or failure explanation when unsatisfied
}

// SignalSet holds the latest snapshot of the three setup prerequisites.
// The zero value reports nothing satisfied, which is the safe default.
type SignalSet struct {
	Credentials ReadinessSignal
	Key         ReadinessSignal
	Auth        ReadinessSignal
}

// AllSatisfied reports whether every prerequisite signal is satisfied.
func (s SignalSet) AllSatisfied() bool {
	return s.Credentials.Satisfied && s.Key.Satisfied && s.Auth.Satisfied
}

// AllFailed reports whether every probe came back with a failure detail.
// This is the "confirmed backend outage" condition: not merely unconfigured,
// but unreadable.
func (s SignalSet) AllFailed() bool {
	return s.Credentials.Detail != "" && s.Key.Detail != "" && s.Auth.Detail != ""
}

// SetupStep is the closed set of onboarding steps. Exactly one is current at
// a time; switches over SetupStep must be exhaustive so a new prerequisite is
// a compile-visible change.
type SetupStep int

const (
	StepCredentials SetupStep = iota
	StepSecondaryKey
	StepAuthorize
	StepValidating
	StepComplete
)

// String returns the human-readable step name.
func (s SetupStep) String() string {
	switch s {
	case StepCredentials:
		return "Trakt credentials"
	case StepSecondaryKey:
		return "TMDB key"
	case StepAuthorize:
		return "Authorize"
	case StepValidating:
		return "Validating"
	case StepComplete:
		return "Complete"
	default:
		return "unknown"
	}
}

// Ordinal returns the 1-based position for step indicators. Complete shares
// the Validating slot because it never renders its own step UI.
func (s SetupStep) Ordinal() int {
	switch s {
	case StepCredentials:
		return 1
	case StepSecondaryKey:
		return 2
	case StepAuthorize:
		return 3
	default:
		return 4
	}
}

// StepCount is the number of steps shown in the wizard indicator.
const StepCount = 4

// ComputeStep derives the current setup step from the latest signal snapshot.
// Priority order is fixed: credentials, then key, then auth. When all three
// are satisfied the result is Validating until a validation pass has confirmed
// the setup, after which it is Complete. The displayed step must always equal
// this computation; there is no optimistic skip-ahead on unconfirmed input.
func ComputeStep(s SignalSet, validated bool) SetupStep {
	switch {
	case !s.Credentials.Satisfied:
		return StepCredentials
	case !s.Key.Satisfied:
		return StepSecondaryKey
	case !s.Auth.Satisfied:
		return StepAuthorize
	case !validated:
		return StepValidating
	default:
		return StepComplete
	}
}

// CredentialDraft holds user-entered form fields for the current step only.
// It is cleared on successful submission and never cached across steps.
type CredentialDraft struct {
	ClientID     string
	ClientSecret string
	RedirectHost string
	APIKey       string
}

// Clear zeroes every field.
func (d *CredentialDraft) Clear() {
	*d = CredentialDraft{}
}

// ValidationOutcome is the server's authoritative answer to the full-setup
// validation call. The server is the source of truth; cached signals may have
// gone stale between probes.
type ValidationOutcome struct {
	Valid              bool     `json:"valid"`
	Errors             []string `json:"errors"`
	TraktConfigured    bool     `json:"trakt_configured"`
	TMDBConfigured     bool     `json:"tmdb_configured"`
	TraktAuthenticated bool     `json:"trakt_authenticated"`
}

// RollbackStep maps a failed validation to the earliest step the server
// reports as incomplete. Called only when Valid is false.
func (v ValidationOutcome) RollbackStep() SetupStep {
	switch {
	case !v.TraktConfigured:
		return StepCredentials
	case !v.TMDBConfigured:
		return StepSecondaryKey
	case !v.TraktAuthenticated:
		return StepAuthorize
	default:
		// Server said invalid without naming a prerequisite; re-enter at
		// Validating so the user can retry the call.
		return StepValidating
	}
}
