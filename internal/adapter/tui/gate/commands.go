package gate

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelist/internal/domain"
)

const (
	toastDuration = 4 * time.Second
	retryInterval = 5 * time.Second
)

// probeCmd runs a readiness probe for routing.
func probeCmd(prober domain.ReadinessProber, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		set, enrichment := prober.ProbeAll(ctx)
		return SignalsMsg{Set: set, Enrichment: enrichment, Gen: gen}
	}
}

// helpProbeCmd refreshes the readiness snapshot shown inside the help
// overlay. Same probes as probeCmd, but the result arrives as
// HelpSignalsMsg so an open wizard or monitor is left undisturbed.
func helpProbeCmd(prober domain.ReadinessProber, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		set, enrichment := prober.ProbeAll(ctx)
		return HelpSignalsMsg{Set: set, Enrichment: enrichment, Gen: gen}
	}
}

// retryTickCmd schedules the next automatic retry on the unreachable screen.
func retryTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(retryInterval, func(_ time.Time) tea.Msg {
		return RetryTickMsg{Gen: gen}
	})
}

// toastExpireCmd schedules the toast hide.
func toastExpireCmd(seq uint64) tea.Cmd {
	return tea.Tick(toastDuration, func(_ time.Time) tea.Msg {
		return ToastExpireMsg{Seq: seq}
	})
}
