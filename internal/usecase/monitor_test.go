package usecase

import (
	"testing"
	"time"

	"reelist/internal/domain"
)

func TestShouldStartForIdleJob(t *testing.T) {
	m := NewMonitorSession()
	if !m.ShouldStart(domain.BuildJobStatus{State: domain.BuildNotStarted}) {
		t.Fatal("an idle job should get the automatic start")
	}
	if m.ShouldStart(domain.BuildJobStatus{State: domain.BuildNotStarted}) {
		t.Error("the start slot must be consumed after the first decision")
	}
}

func TestShouldStartRetriesErroredJob(t *testing.T) {
	m := NewMonitorSession()
	if !m.ShouldStart(domain.BuildJobStatus{State: domain.BuildError}) {
		t.Fatal("a previously errored job should get one retry on mount")
	}
}

func TestShouldStartRunningJobConsumesSlot(t *testing.T) {
	m := NewMonitorSession()
	if m.ShouldStart(domain.BuildJobStatus{State: domain.BuildRunning}) {
		t.Fatal("a running job must not be restarted")
	}
	// The job erroring later in the same mount must not trigger a start
	// either, that would be a retry loop.
	if m.ShouldStart(domain.BuildJobStatus{State: domain.BuildError}) {
		t.Error("a mid-watch error triggered an automatic start")
	}
}

func TestShouldStartCompletedJobConsumesSlot(t *testing.T) {
	m := NewMonitorSession()
	if m.ShouldStart(domain.BuildJobStatus{State: domain.BuildComplete}) {
		t.Error("a completed job must not be restarted")
	}
}

func TestShouldRecordOncePerMount(t *testing.T) {
	m := NewMonitorSession()
	if m.ShouldRecord(domain.BuildJobStatus{State: domain.BuildRunning}) {
		t.Fatal("a running snapshot is not recordable")
	}
	if !m.ShouldRecord(domain.BuildJobStatus{State: domain.BuildComplete}) {
		t.Fatal("the first terminal snapshot should be recorded")
	}
	if m.ShouldRecord(domain.BuildJobStatus{State: domain.BuildComplete}) {
		t.Error("a second terminal snapshot was recorded")
	}
}

func TestShouldRecordErrorState(t *testing.T) {
	m := NewMonitorSession()
	if !m.ShouldRecord(domain.BuildJobStatus{State: domain.BuildError}) {
		t.Error("errored runs belong in the history too")
	}
}

func TestHoldForGrace(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m := NewMonitorSession()
	m.now = func() time.Time { return now }

	done := domain.BuildJobStatus{State: domain.BuildComplete, Total: 100, Processed: 100}

	if !m.HoldForGrace(done) {
		t.Fatal("the first finished snapshot should start the grace hold")
	}
	now = now.Add(completionGrace / 2)
	if !m.HoldForGrace(done) {
		t.Error("still inside the grace window")
	}
	now = now.Add(completionGrace)
	if m.HoldForGrace(done) {
		t.Error("the grace window should have elapsed")
	}
}

func TestSetGraceOverridesWindow(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m := NewMonitorSession()
	m.now = func() time.Time { return now }
	m.SetGrace(10 * time.Second)

	done := domain.BuildJobStatus{State: domain.BuildComplete}
	m.HoldForGrace(done)

	now = now.Add(5 * time.Second)
	if !m.HoldForGrace(done) {
		t.Error("still inside the configured window")
	}
	now = now.Add(6 * time.Second)
	if m.HoldForGrace(done) {
		t.Error("the configured window should have elapsed")
	}

	m.SetGrace(0)
	if m.grace != 10*time.Second {
		t.Error("non-positive grace should keep the previous value")
	}
}

func TestHoldForGraceSkipsErrors(t *testing.T) {
	m := NewMonitorSession()
	if m.HoldForGrace(domain.BuildJobStatus{State: domain.BuildError}) {
		t.Error("error states hand off immediately, no grace")
	}
}

func TestHoldForGraceResetsWhenRunningAgain(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	m := NewMonitorSession()
	m.now = func() time.Time { return now }

	m.HoldForGrace(domain.BuildJobStatus{State: domain.BuildComplete})
	m.HoldForGrace(domain.BuildJobStatus{State: domain.BuildRunning})

	// A fresh completion restarts the clock from zero.
	now = now.Add(10 * completionGrace)
	if !m.HoldForGrace(domain.BuildJobStatus{State: domain.BuildPartial}) {
		t.Error("a new terminal snapshot should start a fresh grace hold")
	}
}

func TestRecordFrom(t *testing.T) {
	started := time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC)
	finished := started.Add(7 * time.Minute)
	status := domain.BuildJobStatus{
		State:     domain.BuildPartial,
		Total:     1200,
		Processed: 1100,
		StartedAt: started,
	}

	rec := RecordFrom(status, false, finished)
	if rec.State != domain.BuildPartial || rec.Total != 1200 || rec.Processed != 1100 {
		t.Errorf("record = %+v", rec)
	}
	if !rec.StartedAt.Equal(started) || !rec.FinishedAt.Equal(finished) {
		t.Errorf("record times = %v..%v", rec.StartedAt, rec.FinishedAt)
	}
	if rec.Duration() != 7*time.Minute {
		t.Errorf("Duration() = %v, want 7m", rec.Duration())
	}
	if rec.ID != "" {
		t.Error("the store mints IDs, RecordFrom must leave it empty")
	}
}

func TestRecordFromSkip(t *testing.T) {
	rec := RecordFrom(domain.BuildJobStatus{State: domain.BuildRunning}, true, time.Now())
	if !rec.Skipped {
		t.Error("Skipped flag lost")
	}
}
