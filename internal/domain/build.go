package domain

import "time"

// BuildJobState is the closed set of enrichment job states reported by the
// backend.
type BuildJobState string

const (
	BuildNotStarted BuildJobState = "not_started"
	BuildRunning    BuildJobState = "running"
	BuildComplete   BuildJobState = "complete"
	BuildPartial    BuildJobState = "partial"
	BuildError      BuildJobState = "error"
)

// Terminal reports whether the state ends monitoring. Error is terminal for
// the current run but may be retried by a fresh start attempt on remount.
func (s BuildJobState) Terminal() bool {
	switch s {
	case BuildComplete, BuildPartial, BuildError:
		return true
	default:
		return false
	}
}

// BuildJobStatus is the latest polled snapshot of the enrichment job. The
// backend owns this data; the client never extrapolates beyond it except for
// the derived Percent and ETA below.
type BuildJobStatus struct {
	State       BuildJobState `json:"state"`
	Total       int           `json:"total"`
	Processed   int           `json:"processed"`
	StartedAt   time.Time     `json:"started_at,omitzero"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero"`
	ErrorDetail string        `json:"error,omitempty"`
}

// Percent returns processed/total as a percentage, clamped to [0,100].
// A zero or unknown total reports 0 rather than dividing.
func (b BuildJobStatus) Percent() float64 {
	if b.Total <= 0 {
		return 0
	}
	pct := float64(b.Processed) / float64(b.Total) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// ETA estimates the remaining duration from throughput since StartedAt.
// The second return is false when no estimate is defined: nothing processed
// yet, no start time, or a non-positive rate. Callers hide the estimate in
// that case instead of showing an infinite or NaN value.
func (b BuildJobStatus) ETA(now time.Time) (time.Duration, bool) {
	if b.Processed <= 0 || b.Total <= 0 || b.StartedAt.IsZero() {
		return 0, false
	}
	elapsed := now.Sub(b.StartedAt)
	if elapsed <= 0 {
		return 0, false
	}
	rate := float64(b.Processed) / elapsed.Seconds()
	if rate <= 0 {
		return 0, false
	}
	remaining := float64(b.Total-b.Processed) / rate
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining * float64(time.Second)), true
}

// BuildRecord is one finished (or skipped) enrichment run as kept in the
// local history store.
type BuildRecord struct {
	ID         string
	State      BuildJobState
	Total      int
	Processed  int
	StartedAt  time.Time
	FinishedAt time.Time
	Skipped    bool
}

// Duration returns the wall-clock time the run took, zero when unknown.
func (r BuildRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
