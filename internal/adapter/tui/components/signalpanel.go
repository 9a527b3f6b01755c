package components

import (
	"strings"

	"reelist/internal/adapter/tui/theme"
	"reelist/internal/domain"
)

// SignalPanelModel renders the readiness signal snapshot as a short list:
// one line per prerequisite, with the failure detail when a probe could not
// read the server.
type SignalPanelModel struct {
	set        domain.SignalSet
	enrichment domain.ReadinessSignal
	hasData    bool
}

// NewSignalPanel creates an empty panel.
func NewSignalPanel() SignalPanelModel {
	return SignalPanelModel{}
}

// SetSignals replaces the displayed snapshot.
func (m *SignalPanelModel) SetSignals(set domain.SignalSet, enrichment domain.ReadinessSignal) {
	m.set = set
	m.enrichment = enrichment
	m.hasData = true
}

// View renders the panel.
func (m SignalPanelModel) View() string {
	if !m.hasData {
		return theme.TextMuted.Render("  Checking server configuration" + theme.SymbolEllipsis)
	}

	var sb strings.Builder
	for _, sig := range []domain.ReadinessSignal{
		m.set.Credentials,
		m.set.Key,
		m.set.Auth,
		m.enrichment,
	} {
		sb.WriteString("  " + signalLine(sig) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func signalLine(sig domain.ReadinessSignal) string {
	label := signalLabel(sig.Name)

	switch {
	case sig.Satisfied:
		return theme.TextSuccess.Render(theme.SymbolSuccess) + " " + label
	case sig.Detail != "":
		return theme.TextError.Render(theme.SymbolError) + " " + label +
			"  " + theme.TextMuted.Render(sig.Detail)
	default:
		return theme.TextMuted.Render(theme.SymbolPending) + " " + theme.TextMuted.Render(label)
	}
}

func signalLabel(name domain.SignalName) string {
	switch name {
	case domain.SignalTraktCredentials:
		return "Trakt credentials"
	case domain.SignalTMDBKey:
		return "TMDB API key"
	case domain.SignalTraktAuth:
		return "Trakt authorization"
	case domain.SignalEnrichment:
		return "Library enrichment"
	default:
		return string(name)
	}
}
