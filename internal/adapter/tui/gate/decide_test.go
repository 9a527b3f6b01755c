package gate

import (
	"testing"

	"reelist/internal/domain"
)

func sig(name domain.SignalName, satisfied bool, detail string) domain.ReadinessSignal {
	return domain.ReadinessSignal{Name: name, Satisfied: satisfied, Detail: detail}
}

func allSatisfied() domain.SignalSet {
	return domain.SignalSet{
		Credentials: sig(domain.SignalTraktCredentials, true, ""),
		Key:         sig(domain.SignalTMDBKey, true, ""),
		Auth:        sig(domain.SignalTraktAuth, true, ""),
	}
}

func allFailed() domain.SignalSet {
	return domain.SignalSet{
		Credentials: sig(domain.SignalTraktCredentials, false, "connection refused"),
		Key:         sig(domain.SignalTMDBKey, false, "connection refused"),
		Auth:        sig(domain.SignalTraktAuth, false, "connection refused"),
	}
}

func unconfigured() domain.SignalSet {
	return domain.SignalSet{
		Credentials: sig(domain.SignalTraktCredentials, false, ""),
		Key:         sig(domain.SignalTMDBKey, false, ""),
		Auth:        sig(domain.SignalTraktAuth, false, ""),
	}
}

func TestDecideScreen(t *testing.T) {
	enrichDone := sig(domain.SignalEnrichment, true, "")
	enrichPending := sig(domain.SignalEnrichment, false, "enrichment not built")

	tests := []struct {
		name        string
		set         domain.SignalSet
		enrichment  domain.ReadinessSignal
		breakerOpen bool
		continued   bool
		want        Screen
	}{
		{
			name:       "everything ready goes home",
			set:        allSatisfied(),
			enrichment: enrichDone,
			want:       ScreenHome,
		},
		{
			name:       "missing enrichment goes to the monitor",
			set:        allSatisfied(),
			enrichment: enrichPending,
			want:       ScreenMonitor,
		},
		{
			name:       "unconfigured server goes to setup",
			set:        unconfigured(),
			enrichment: enrichPending,
			want:       ScreenSetup,
		},
		{
			name:       "confirmed outage never masquerades as unconfigured",
			set:        allFailed(),
			enrichment: enrichPending,
			want:       ScreenUnreachable,
		},
		{
			name:        "open breaker is treated as an outage",
			set:         allSatisfied(),
			enrichment:  enrichDone,
			breakerOpen: true,
			want:        ScreenUnreachable,
		},
		{
			name:       "continue anyway sticks for the session",
			set:        allFailed(),
			enrichment: enrichPending,
			continued:  true,
			want:       ScreenHome,
		},
		{
			name: "single probe failure still routes to setup",
			set: domain.SignalSet{
				Credentials: sig(domain.SignalTraktCredentials, true, ""),
				Key:         sig(domain.SignalTMDBKey, false, "timeout"),
				Auth:        sig(domain.SignalTraktAuth, false, ""),
			},
			enrichment: enrichPending,
			want:       ScreenSetup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideScreen(tt.set, tt.enrichment, tt.breakerOpen, tt.continued)
			if got != tt.want {
				t.Errorf("DecideScreen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScreenString(t *testing.T) {
	names := map[Screen]string{
		ScreenLoading:     "loading",
		ScreenSetup:       "setup",
		ScreenMonitor:     "monitor",
		ScreenHome:        "home",
		ScreenUnreachable: "unreachable",
		Screen(99):        "unknown",
	}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("Screen(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
