package usecase

import (
	"context"
	"errors"
	"testing"

	"reelist/internal/domain"
)

type mockProber struct {
	set        domain.SignalSet
	enrichment domain.ReadinessSignal
	probes     int
}

func (m *mockProber) ProbeAll(_ context.Context) (domain.SignalSet, domain.ReadinessSignal) {
	m.probes++
	return m.set, m.enrichment
}

func TestSubmitCredentialsSavesRedirectFirst(t *testing.T) {
	backend := &mockSetupBackend{}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	draft := domain.CredentialDraft{
		ClientID:     "cid123",
		ClientSecret: "secret456",
		RedirectHost: "media-box:8585",
	}
	if err := svc.SubmitCredentials(context.Background(), draft); err != nil {
		t.Fatalf("SubmitCredentials() error = %v", err)
	}

	want := []string{"save_redirect_uri", "save_credentials"}
	if len(backend.calls) != 2 || backend.calls[0] != want[0] || backend.calls[1] != want[1] {
		t.Errorf("call order = %v, want %v", backend.calls, want)
	}
	if backend.savedURI != "http://media-box:8585/callback" {
		t.Errorf("redirect URI = %q", backend.savedURI)
	}
	if backend.savedID != "cid123" || backend.savedSecret != "secret456" {
		t.Errorf("credentials = %q/%q", backend.savedID, backend.savedSecret)
	}
}

func TestSubmitCredentialsRequiresHost(t *testing.T) {
	backend := &mockSetupBackend{}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	err := svc.SubmitCredentials(context.Background(), domain.CredentialDraft{
		ClientID:     "cid123",
		ClientSecret: "secret456",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if len(backend.calls) != 0 {
		t.Errorf("calls = %v, nothing should reach the backend", backend.calls)
	}
}

func TestSubmitCredentialsStopsWhenRedirectFails(t *testing.T) {
	backend := &mockSetupBackend{
		redirectErr: domain.NewDomainError("Client.SaveRedirectURI", domain.ErrBackendUnreachable, ""),
	}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	err := svc.SubmitCredentials(context.Background(), domain.CredentialDraft{
		ClientID:     "cid123",
		ClientSecret: "secret456",
		RedirectHost: "media-box:8585",
	})
	if !errors.Is(err, domain.ErrBackendUnreachable) {
		t.Fatalf("error = %v, want ErrBackendUnreachable", err)
	}
	// Credentials must never land on a server with no return address.
	if backend.savedID != "" {
		t.Error("credentials were saved after the redirect URI failed")
	}
}

func TestSubmitKey(t *testing.T) {
	backend := &mockSetupBackend{}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	if err := svc.SubmitKey(context.Background(), "tmdbkey789"); err != nil {
		t.Fatalf("SubmitKey() error = %v", err)
	}
	if backend.savedKey != "tmdbkey789" {
		t.Errorf("saved key = %q", backend.savedKey)
	}
}

func TestSubmitKeyRejection(t *testing.T) {
	backend := &mockSetupBackend{
		keyErr: domain.NewDomainError("Client.SaveTMDBKey", domain.ErrSubmissionRejected, "TMDB validation failed"),
	}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	err := svc.SubmitKey(context.Background(), "badkey")
	if !errors.Is(err, domain.ErrSubmissionRejected) {
		t.Fatalf("error = %v, want ErrSubmissionRejected", err)
	}
	if got := domain.RejectionReason(err); got != "TMDB validation failed" {
		t.Errorf("reason = %q", got)
	}
}

func TestValidateReturnsServerOutcome(t *testing.T) {
	backend := &mockSetupBackend{
		validateOut: domain.ValidationOutcome{
			Valid:           false,
			Errors:          []string{"TMDB key missing"},
			TraktConfigured: true,
		},
	}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	outcome, err := svc.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if outcome.Valid {
		t.Error("outcome.Valid = true, want false")
	}
	if got := outcome.RollbackStep(); got != domain.StepSecondaryKey {
		t.Errorf("rollback step = %v, want StepSecondaryKey", got)
	}
}

func TestValidateError(t *testing.T) {
	backend := &mockSetupBackend{
		validateErr: domain.NewDomainError("Client.ValidateSetup", domain.ErrTimeout, ""),
	}
	svc := NewSetupService(backend, &mockProber{}, newTestLogger())

	if _, err := svc.Validate(context.Background()); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestSignalsDelegatesToProber(t *testing.T) {
	prober := &mockProber{
		set: domain.SignalSet{
			Credentials: domain.ReadinessSignal{Name: domain.SignalTraktCredentials, Satisfied: true},
		},
		enrichment: domain.ReadinessSignal{Name: domain.SignalEnrichment},
	}
	svc := NewSetupService(&mockSetupBackend{}, prober, newTestLogger())

	set, enrichment := svc.Signals(context.Background())
	if !set.Credentials.Satisfied {
		t.Error("signal snapshot was not passed through")
	}
	if enrichment.Name != domain.SignalEnrichment {
		t.Errorf("enrichment signal = %+v", enrichment)
	}
	if prober.probes != 1 {
		t.Errorf("probes = %d, want 1", prober.probes)
	}
}

func TestRollbackBudget(t *testing.T) {
	var budget RollbackBudget
	for i := 0; i < maxRollbacks; i++ {
		if !budget.Spend() {
			t.Fatalf("rollback %d should be within budget", i+1)
		}
	}
	if budget.Spend() {
		t.Error("rollback past the bound should be refused")
	}
	if budget.Used() != maxRollbacks {
		t.Errorf("Used() = %d, want %d", budget.Used(), maxRollbacks)
	}
	if budget.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", budget.Remaining())
	}
}

func TestContinueAnywayEligible(t *testing.T) {
	allFailed := domain.SignalSet{
		Credentials: domain.ReadinessSignal{Detail: "server unreachable"},
		Key:         domain.ReadinessSignal{Detail: "server unreachable"},
		Auth:        domain.ReadinessSignal{Detail: "server unreachable"},
	}
	unconfigured := domain.SignalSet{}
	partial := domain.SignalSet{
		Credentials: domain.ReadinessSignal{Satisfied: true},
		Key:         domain.ReadinessSignal{Detail: "probe timed out"},
	}

	tests := []struct {
		name        string
		set         domain.SignalSet
		breakerOpen bool
		want        bool
	}{
		{"confirmed outage", allFailed, false, true},
		{"breaker open", unconfigured, true, true},
		{"merely unconfigured", unconfigured, false, false},
		{"single probe failure", partial, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContinueAnywayEligible(tt.set, tt.breakerOpen); got != tt.want {
				t.Errorf("ContinueAnywayEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
