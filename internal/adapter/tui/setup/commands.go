package setup

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelist/internal/adapter/callback"
	"reelist/internal/domain"
	"reelist/internal/usecase"
)

// probeCmd refreshes the readiness signals asynchronously.
func probeCmd(svc *usecase.SetupService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		set, enrichment := svc.Signals(ctx)
		return SignalsMsg{Set: set, Enrichment: enrichment}
	}
}

// submitCredentialsCmd saves the redirect URI and app credentials.
func submitCredentialsCmd(svc *usecase.SetupService, draft domain.CredentialDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return SubmitResultMsg{Err: svc.SubmitCredentials(ctx, draft)}
	}
}

// submitKeyCmd saves the TMDB API key.
func submitKeyCmd(svc *usecase.SetupService, key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return KeyResultMsg{Err: svc.SubmitKey(ctx, key)}
	}
}

// authorizeCmd asks the backend for a fresh authorization URL.
func authorizeCmd(broker *usecase.Broker) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		url, err := broker.BeginAuthorization(ctx)
		return AuthURLMsg{URL: url, Err: err}
	}
}

// resumePendingCmd loads the return location a previous run persisted. An
// unreadable session file reports an empty location, which means "nothing to
// resume", not an error worth blocking the authorize step over.
func resumePendingCmd(broker *usecase.Broker) tea.Cmd {
	return func() tea.Msg {
		loc, err := broker.PendingReturn()
		if err != nil {
			return PendingReturnMsg{}
		}
		return PendingReturnMsg{Loc: loc}
	}
}

// startListenerCmd binds the callback listener and reports the bound address.
// The serve loop keeps running in the background until the listener is
// stopped; a bind failure comes back immediately so the wizard can offer
// paste mode instead.
func startListenerCmd(l *callback.Listener) tea.Cmd {
	return func() tea.Msg {
		errc := make(chan error, 1)
		go func() {
			errc <- l.Start(context.Background())
		}()
		select {
		case <-l.Ready():
			return ListenerReadyMsg{Addr: l.BoundAddr()}
		case err := <-errc:
			return ListenerReadyMsg{Err: err}
		}
	}
}

// stopListenerCmd shuts the callback listener down.
func stopListenerCmd(l *callback.Listener) tea.Cmd {
	if l == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Stop(ctx)
		return nil
	}
}

// awaitReturnCmd blocks until the listener captures a return visit.
func awaitReturnCmd(l *callback.Listener) tea.Cmd {
	return func() tea.Msg {
		loc, ok := <-l.Locations()
		if !ok {
			return nil
		}
		return ReturnMsg{Loc: loc}
	}
}

// consumeCmd records the raw return location, then runs the one-shot code
// exchange against it. A failed record only weakens crash recovery; the
// exchange proceeds regardless.
func consumeCmd(broker *usecase.Broker, loc domain.Location) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = broker.RecordReturn(loc)
		outcome, err := broker.Consume(ctx, loc)
		return ConsumeResultMsg{
			Outcome: outcome,
			Denied:  domain.DenialReason(loc),
			Err:     err,
		}
	}
}

// validateCmd runs the server-side full-setup validation.
func validateCmd(svc *usecase.SetupService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		outcome, err := svc.Validate(ctx)
		return ValidateResultMsg{Outcome: outcome, Err: err}
	}
}

// openBrowserCmd launches the system browser at the authorization URL.
func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		return BrowserOpenedMsg{Err: cmd.Start()}
	}
}

// doneCmd emits the wizard completion message for the host screen.
func doneCmd(cancelled bool) tea.Cmd {
	return func() tea.Msg {
		return WizardDoneMsg{Cancelled: cancelled}
	}
}

// continueAnywayCmd reports that the user chose to proceed despite an
// exhausted validation budget.
func continueAnywayCmd() tea.Cmd {
	return func() tea.Msg {
		return WizardDoneMsg{Continued: true}
	}
}
