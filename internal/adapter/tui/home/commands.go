package home

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelist/internal/domain"
)

// healthCmd polls the server health endpoint.
func healthCmd(backend StatusBackend, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := backend.Health(ctx)
		return HealthMsg{Status: status, Err: err, Gen: gen}
	}
}

// authCmd fetches the authorized Trakt account.
func authCmd(backend StatusBackend, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		user, err := backend.AuthStatus(ctx)
		return AuthMsg{User: user, Err: err, Gen: gen}
	}
}

// probeCmd refreshes the readiness signals.
func probeCmd(prober domain.ReadinessProber, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		set, enrichment := prober.ProbeAll(ctx)
		return SignalsMsg{Set: set, Enrichment: enrichment, Gen: gen}
	}
}

// lastRunCmd loads the most recent completed enrichment run.
func lastRunCmd(history domain.BuildHistory) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rec, err := history.LastCompleted(ctx)
		if err != nil {
			return LastRunMsg{}
		}
		return LastRunMsg{Rec: rec}
	}
}

// tickCmd schedules the next health poll.
func tickCmd(interval time.Duration, gen uint64) tea.Cmd {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return tea.Tick(interval, func(_ time.Time) tea.Msg {
		return TickMsg{Gen: gen}
	})
}

// rebuildCmd hands the rebuild request to the host screen.
func rebuildCmd() tea.Cmd {
	return func() tea.Msg {
		return RebuildRequestMsg{}
	}
}

// setupCmd hands the re-enter-setup request to the host screen.
func setupCmd() tea.Cmd {
	return func() tea.Msg {
		return SetupRequestMsg{}
	}
}
