// Package setup implements the Bubble Tea first-run wizard for reelist.
package setup

import (
	"reelist/internal/domain"
	"reelist/internal/usecase"
)

// SignalsMsg carries a fresh readiness probe snapshot.
type SignalsMsg struct {
	Set        domain.SignalSet
	Enrichment domain.ReadinessSignal
}

// SubmitResultMsg carries the result of the async credential submission.
type SubmitResultMsg struct {
	Err error
}

// KeyResultMsg carries the result of the async TMDB key submission.
type KeyResultMsg struct {
	Err error
}

// AuthURLMsg carries the authorization URL minted by the backend.
type AuthURLMsg struct {
	URL string
	Err error
}

// ListenerReadyMsg reports the callback listener bind outcome.
type ListenerReadyMsg struct {
	Addr string
	Err  error
}

// BrowserOpenedMsg reports whether the system browser could be launched.
type BrowserOpenedMsg struct {
	Err error
}

// ReturnMsg carries a captured authorization return location.
type ReturnMsg struct {
	Loc domain.Location
}

// PendingReturnMsg carries the return location persisted by a previous run,
// empty when the session file holds none. Checked on entering the authorize
// step, before a new authorization is minted.
type PendingReturnMsg struct {
	Loc domain.Location
}

// ConsumeResultMsg carries the outcome of the one-shot code exchange.
type ConsumeResultMsg struct {
	Outcome usecase.ConsumeOutcome
	Denied  string // provider denial reason, when the user refused access
	Err     error
}

// ValidateResultMsg carries the server's full-setup validation verdict.
type ValidateResultMsg struct {
	Outcome domain.ValidationOutcome
	Err     error
}

// WizardDoneMsg signals that the wizard is finished. Continued means the
// validation loop gave up and the user chose to proceed with incomplete
// setup rather than leave.
type WizardDoneMsg struct {
	Cancelled bool
	Continued bool
}
