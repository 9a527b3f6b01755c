package monitor

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelist/internal/domain"
)

// pollStatusCmd fetches the current build status.
func pollStatusCmd(backend domain.BuildBackend, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := backend.BuildStatus(ctx)
		return StatusMsg{Status: status, Err: err, Gen: gen}
	}
}

// tickCmd schedules the next poll.
func tickCmd(interval time.Duration, gen uint64) tea.Cmd {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return tea.Tick(interval, func(_ time.Time) tea.Msg {
		return TickMsg{Gen: gen}
	})
}

// startBuildCmd issues the build start call.
func startBuildCmd(backend domain.BuildBackend, force bool, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return StartResultMsg{Err: backend.StartBuild(ctx, force), Gen: gen}
	}
}

// skipBuildCmd marks the enrichment build as intentionally skipped.
func skipBuildCmd(backend domain.BuildBackend, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return SkipResultMsg{Err: backend.SkipBuild(ctx), Gen: gen}
	}
}

// recordRunCmd writes a finished run to the local history.
func recordRunCmd(history domain.BuildHistory, rec domain.BuildRecord) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return RecordedMsg{Err: history.Record(ctx, rec)}
	}
}

// lastRunCmd loads the most recent completed run for the mount hint.
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

// doneCmd hands control back to the host screen.
func doneCmd(outcome domain.BuildJobState, skipped bool) tea.Cmd {
	return func() tea.Msg {
		return DoneMsg{Outcome: outcome, Skipped: skipped}
	}
}
