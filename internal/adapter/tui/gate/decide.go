// Package gate owns the top-level screen routing: it probes the backend,
// decides which screen serves the current state, and hosts the active screen
// model.
package gate

import (
	"reelist/internal/domain"
	"reelist/internal/usecase"
)

// Screen identifies a top-level screen.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenSetup
	ScreenMonitor
	ScreenHome
	ScreenUnreachable
)

// String returns the screen name for logs.
func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenSetup:
		return "setup"
	case ScreenMonitor:
		return "monitor"
	case ScreenHome:
		return "home"
	case ScreenUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// DecideScreen maps a probe snapshot to the screen that serves it. A
// confirmed outage overrides everything: an unconfigured server and an
// unreachable one must never be confused, or the wizard would ask a user to
// re-enter credentials the server already holds. continued reports whether
// the user already chose to continue past the outage this session.
func DecideScreen(set domain.SignalSet, enrichment domain.ReadinessSignal, breakerOpen, continued bool) Screen {
	if usecase.ContinueAnywayEligible(set, breakerOpen) {
		if continued {
			return ScreenHome
		}
		return ScreenUnreachable
	}
	if !set.AllSatisfied() {
		return ScreenSetup
	}
	if !enrichment.Satisfied {
		return ScreenMonitor
	}
	return ScreenHome
}
