package usecase

import (
	"context"
	"log/slog"

	"reelist/internal/domain"
	"reelist/internal/infra/tracer"
)

// maxRollbacks bounds how many times a failed validation may bounce the
// wizard back to an earlier step within one mount. Past the bound the wizard
// stops looping and tells the user the setup looks stuck.
const maxRollbacks = 3

// SetupService drives the onboarding steps against the backend. It owns the
// ordering rules the individual save calls cannot enforce on their own.
type SetupService struct {
	backend domain.SetupBackend
	prober  domain.ReadinessProber
	logger  *slog.Logger
}

// NewSetupService creates a setup service.
func NewSetupService(backend domain.SetupBackend, prober domain.ReadinessProber, logger *slog.Logger) *SetupService {
	return &SetupService{backend: backend, prober: prober, logger: logger}
}

// SubmitCredentials persists the Trakt credentials step. The redirect URI is
// assembled from the draft's host and saved first, so the server never holds
// credentials without a return address for the handshake.
func (s *SetupService) SubmitCredentials(ctx context.Context, draft domain.CredentialDraft) error {
	const op = "SetupService.SubmitCredentials"
	if draft.RedirectHost == "" {
		return domain.NewDomainError(op, domain.ErrInvalidInput, "redirect host is required")
	}

	ctx, span := tracer.StartSpan(ctx, "setup.submit_credentials")
	defer span.End()

	redirectURI := "http://" + draft.RedirectHost + domain.CallbackPath
	if err := s.backend.SaveRedirectURI(ctx, redirectURI); err != nil {
		tracer.RecordError(span, err)
		return err
	}
	if err := s.backend.SaveTraktCredentials(ctx, draft.ClientID, draft.ClientSecret); err != nil {
		tracer.RecordError(span, err)
		return err
	}

	tracer.SetOK(span)
	return nil
}

// SubmitKey persists the TMDB key step. The server validates the key against
// TMDB before accepting it; a rejection carries the server's reason.
func (s *SetupService) SubmitKey(ctx context.Context, apiKey string) error {
	return s.backend.SaveTMDBKey(ctx, apiKey)
}

// Validate asks the server to confirm the finished setup. The server's answer
// overrides any cached signal snapshot.
func (s *SetupService) Validate(ctx context.Context) (domain.ValidationOutcome, error) {
	ctx, span := tracer.StartSpan(ctx, "setup.validate")
	defer span.End()

	outcome, err := s.backend.ValidateSetup(ctx)
	if err != nil {
		tracer.RecordError(span, err)
		return domain.ValidationOutcome{}, err
	}
	if !outcome.Valid {
		s.logger.Warn("setup validation failed",
			"errors", len(outcome.Errors), "rollback_step", outcome.RollbackStep().String())
	}
	tracer.SetOK(span)
	return outcome, nil
}

// Signals runs a fresh probe pass over the readiness signals.
func (s *SetupService) Signals(ctx context.Context) (domain.SignalSet, domain.ReadinessSignal) {
	return s.prober.ProbeAll(ctx)
}

// RollbackBudget counts validation rollbacks within one wizard mount. The
// zero value is a full budget.
type RollbackBudget struct {
	used int
}

// Spend consumes one rollback, reporting false when the budget is exhausted.
func (r *RollbackBudget) Spend() bool {
	if r.used >= maxRollbacks {
		return false
	}
	r.used++
	return true
}

// Used returns how many rollbacks this mount has consumed.
func (r *RollbackBudget) Used() int { return r.used }

// Remaining returns how many rollbacks are left.
func (r *RollbackBudget) Remaining() int { return maxRollbacks - r.used }

// ContinueAnywayEligible reports whether the degraded-mode escape may be
// offered. Only a confirmed outage qualifies: every probe failed to read the
// backend, or the circuit breaker is open. Unconfigured prerequisites never
// qualify; those have a setup path instead.
func ContinueAnywayEligible(set domain.SignalSet, breakerOpen bool) bool {
	return breakerOpen || set.AllFailed()
}
