package usecase

import (
	"time"

	"reelist/internal/domain"
)

// completionGrace is how long the finished progress bar stays on screen
// before the monitor hands off, so the user sees the run actually complete.
const completionGrace = 2 * time.Second

// MonitorSession tracks the per-mount decisions of the build monitor: the
// single automatic start, the one history record per run, and the completion
// grace. A fresh session is created every time the monitor screen mounts.
type MonitorSession struct {
	now       func() time.Time
	grace     time.Duration
	decided   bool
	recorded  bool
	graceFrom time.Time
}

// NewMonitorSession creates a monitor session for one screen mount.
func NewMonitorSession() *MonitorSession {
	return &MonitorSession{now: time.Now, grace: completionGrace}
}

// SetGrace overrides the completion grace. Non-positive values keep the
// default.
func (m *MonitorSession) SetGrace(d time.Duration) {
	if d > 0 {
		m.grace = d
	}
}

// ShouldStart reports whether this mount should issue the automatic start
// call. The decision is made once, on the first snapshot: a job that is not
// started or that previously errored gets one start; anything already running
// or finished gets none. Later snapshots never trigger a start, so a job that
// fails mid-watch is retried by the user, not by a loop.
func (m *MonitorSession) ShouldStart(status domain.BuildJobStatus) bool {
	if m.decided {
		return false
	}
	m.decided = true
	switch status.State {
	case domain.BuildNotStarted, domain.BuildError:
		return true
	default:
		return false
	}
}

// ShouldRecord reports whether this terminal snapshot is the one to write to
// the local history. True exactly once per mount, on the first terminal
// sighting, error states included.
func (m *MonitorSession) ShouldRecord(status domain.BuildJobStatus) bool {
	if !status.State.Terminal() || m.recorded {
		return false
	}
	m.recorded = true
	return true
}

// HoldForGrace reports whether the monitor should keep showing the finished
// bar. The first complete or partial snapshot starts the grace clock; error
// states skip the grace and hand off to their own display immediately.
func (m *MonitorSession) HoldForGrace(status domain.BuildJobStatus) bool {
	switch status.State {
	case domain.BuildComplete, domain.BuildPartial:
	default:
		m.graceFrom = time.Time{}
		return false
	}
	if m.graceFrom.IsZero() {
		m.graceFrom = m.now()
		return true
	}
	return m.now().Sub(m.graceFrom) < m.grace
}

// RecordFrom builds the history record for a finished run snapshot. The store
// mints the record ID.
func RecordFrom(status domain.BuildJobStatus, skipped bool, finishedAt time.Time) domain.BuildRecord {
	return domain.BuildRecord{
		State:      status.State,
		Total:      status.Total,
		Processed:  status.Processed,
		StartedAt:  status.StartedAt,
		FinishedAt: finishedAt,
		Skipped:    skipped,
	}
}
