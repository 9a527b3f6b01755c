// Package home implements the Bubble Tea status screen shown once setup is
// complete.
package home

import (
	"reelist/internal/adapter/backend"
	"reelist/internal/domain"
)

// TickMsg drives the periodic health poll. Gen identifies the mount so ticks
// from a previous mount are discarded.
type TickMsg struct {
	Gen uint64
}

// HealthMsg carries the server health poll result.
type HealthMsg struct {
	Status string
	Err    error
	Gen    uint64
}

// AuthMsg carries the authorized Trakt account, nil when not authorized.
type AuthMsg struct {
	User *backend.TraktUser
	Err  error
	Gen  uint64
}

// SignalsMsg carries a fresh readiness probe snapshot.
type SignalsMsg struct {
	Set        domain.SignalSet
	Enrichment domain.ReadinessSignal
	Gen        uint64
}

// LastRunMsg carries the most recent completed enrichment run.
type LastRunMsg struct {
	Rec *domain.BuildRecord
}

// RebuildRequestMsg asks the host screen to mount the build monitor with a
// forced rebuild.
type RebuildRequestMsg struct{}

// SetupRequestMsg asks the host screen to re-enter the setup wizard.
type SetupRequestMsg struct{}
