// Package monitor implements the Bubble Tea progress screen for the library
// enrichment build.
package monitor

import "reelist/internal/domain"

// StatusMsg carries a polled build status snapshot. Gen identifies the mount
// so snapshots from a previous mount are discarded.
type StatusMsg struct {
	Status domain.BuildJobStatus
	Err    error
	Gen    uint64
}

// TickMsg drives the poll cadence.
type TickMsg struct {
	Gen uint64
}

// StartResultMsg reports the outcome of the build start call.
type StartResultMsg struct {
	Err error
	Gen uint64
}

// SkipResultMsg reports the outcome of the skip call.
type SkipResultMsg struct {
	Err error
	Gen uint64
}

// RecordedMsg reports the local history write outcome.
type RecordedMsg struct {
	Err error
}

// LastRunMsg carries the most recent completed run, nil when there is none.
type LastRunMsg struct {
	Rec *domain.BuildRecord
}

// DoneMsg signals that monitoring finished and the host screen can move on.
type DoneMsg struct {
	Outcome domain.BuildJobState
	Skipped bool
}
