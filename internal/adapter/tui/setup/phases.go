package setup

import "reelist/internal/domain"

// Phase represents a wizard phase.
type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseCredentials
	PhaseKey
	PhaseAuthorize
	PhaseValidating
	PhaseCompletion
	PhaseCount // sentinel
)

// PhaseInfo describes a phase for the step indicator.
type PhaseInfo struct {
	Name string
}

// AllPhases returns display info for each phase.
func AllPhases() []PhaseInfo {
	return []PhaseInfo{
		{Name: "Welcome"},
		{Name: "Trakt Credentials"},
		{Name: "TMDB Key"},
		{Name: "Authorize"},
		{Name: "Validate"},
		{Name: "Complete"},
	}
}

// phaseForStep maps a derived setup step to the wizard phase that serves it.
// The wizard never skips ahead of this mapping; the displayed phase always
// tracks the latest signal snapshot.
func phaseForStep(s domain.SetupStep) Phase {
	switch s {
	case domain.StepCredentials:
		return PhaseCredentials
	case domain.StepSecondaryKey:
		return PhaseKey
	case domain.StepAuthorize:
		return PhaseAuthorize
	case domain.StepValidating:
		return PhaseValidating
	case domain.StepComplete:
		return PhaseCompletion
	}
	return PhaseCredentials
}

// credField walks the credential form one field at a time.
type credField int

const (
	credClientID credField = iota
	credClientSecret
	credRedirectHost
)
