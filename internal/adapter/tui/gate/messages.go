package gate

import "reelist/internal/domain"

// SignalsMsg carries the gate's own probe snapshot used for screen routing.
type SignalsMsg struct {
	Set        domain.SignalSet
	Enrichment domain.ReadinessSignal
	Gen        uint64
}

// HelpSignalsMsg carries the overlay's own probe snapshot. Unlike SignalsMsg
// it only refreshes the help status block and never routes a screen.
type HelpSignalsMsg struct {
	Set        domain.SignalSet
	Enrichment domain.ReadinessSignal
	Gen        uint64
}

// RetryTickMsg drives the background retry loop of the unreachable screen.
type RetryTickMsg struct {
	Gen uint64
}

// ToastExpireMsg hides the toast whose sequence number it carries. A newer
// toast keeps its own timer.
type ToastExpireMsg struct {
	Seq uint64
}
