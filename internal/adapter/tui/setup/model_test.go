package setup

import (
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func testDeps() Deps {
	return Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Entering the authorize step checks the session file for an interrupted
// return trip. A ticketed location goes straight to the exchange; an empty or
// already-scrubbed one falls through to a fresh authorization.
func TestPendingReturnResumesExchange(t *testing.T) {
	m := NewWizardModel(testDeps())
	m.phase = PhaseAuthorize

	model, cmd := m.Update(PendingReturnMsg{Loc: "http://media-box:8585/callback?code=abc&state=xyz"})
	if cmd == nil {
		t.Fatal("ticketed pending return produced no command")
	}
	next := model.(WizardModel)
	if !next.exchanging {
		t.Error("resume did not enter the exchanging state")
	}
	if next.listenerUp || next.listener != nil {
		t.Error("resume must not arm the callback listener")
	}
}

func TestPendingReturnScrubbedFallsToFreshAuthorize(t *testing.T) {
	m := NewWizardModel(testDeps())
	m.phase = PhaseAuthorize

	model, cmd := m.Update(PendingReturnMsg{Loc: "http://media-box:8585/callback"})
	if cmd == nil {
		t.Fatal("scrubbed pending return must arm the authorize machinery")
	}
	next := model.(WizardModel)
	if next.exchanging {
		t.Error("scrubbed location must not trigger an exchange")
	}
	if next.listener == nil {
		t.Error("fresh authorization did not create a listener")
	}
}

// An exhausted validation budget offers the same continue-anyway escape as a
// confirmed outage, and fences off the retry key.
func TestStuckValidationContinueAnyway(t *testing.T) {
	m := NewWizardModel(testDeps())
	m.phase = PhaseValidating
	m.stuck = true

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if cmd == nil {
		t.Fatal("continue key produced no command")
	}
	got := cmd()
	done, ok := got.(WizardDoneMsg)
	if !ok {
		t.Fatalf("continue key produced %T, want WizardDoneMsg", got)
	}
	if !done.Continued || done.Cancelled {
		t.Errorf("continue key produced %+v", done)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter while stuck must not restart validation")
	}
}

func TestPendingReturnIgnoredOutsideAuthorize(t *testing.T) {
	m := NewWizardModel(testDeps())

	model, cmd := m.Update(PendingReturnMsg{Loc: "http://media-box:8585/callback?code=abc&state=xyz"})
	if cmd != nil {
		t.Error("pending return outside the authorize step produced a command")
	}
	if model.(WizardModel).exchanging {
		t.Error("pending return outside the authorize step started an exchange")
	}
}
