package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"reelist/internal/domain"
)

// A tick or status snapshot from a previous mount must die silently: no poll
// command, no state change. The generation tag, not timing, is the guard.
func TestStaleGenerationMessagesAreIgnored(t *testing.T) {
	deps := Deps{
		Poll:   time.Second,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	m := New(deps, 7, false)

	model, cmd := m.Update(TickMsg{Gen: 3})
	if cmd != nil {
		t.Error("stale tick produced a command")
	}
	next := model.(Model)
	if next.haveStatus {
		t.Error("stale tick mutated state")
	}

	stale := StatusMsg{
		Gen:    3,
		Status: domain.BuildJobStatus{State: domain.BuildRunning, Total: 10, Processed: 4},
	}
	model, cmd = next.Update(stale)
	if cmd != nil {
		t.Error("stale status produced a command")
	}
	if model.(Model).haveStatus {
		t.Error("stale status snapshot was applied")
	}
}

func TestStaleStartResultIsIgnored(t *testing.T) {
	deps := Deps{
		Poll:   time.Second,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	m := New(deps, 2, false)
	m.starting = true

	model, _ := m.Update(StartResultMsg{Gen: 1, Err: nil})
	if !model.(Model).starting {
		t.Error("stale start result cleared the starting flag")
	}
}
