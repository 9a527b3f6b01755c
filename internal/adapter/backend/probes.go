package backend

import (
	"context"
	"sync"

	"reelist/internal/domain"
	"reelist/internal/infra/tracer"
)

// Readiness probes. A probe never returns an error: any failure yields the
// safe default (unsatisfied) with the reason in Detail, so a flaky network
// can never claim the system is ready. Probes do not retry; the caller's
// evaluation cadence decides when to look again.

// ProbeTraktCredentials reports whether Trakt API credentials are configured.
func (c *Client) ProbeTraktCredentials(ctx context.Context) domain.ReadinessSignal {
	sig := domain.ReadinessSignal{Name: domain.SignalTraktCredentials}
	var payload struct {
		Configured bool `json:"configured"`
	}
	if err := c.probe(ctx, "Client.ProbeTraktCredentials", "/api/v1/setup/trakt/status", &payload); err != nil {
		sig.Detail = probeDetail(err)
		return sig
	}
	sig.Satisfied = payload.Configured
	return sig
}

// ProbeTMDBKey reports whether a TMDB API key is configured.
func (c *Client) ProbeTMDBKey(ctx context.Context) domain.ReadinessSignal {
	sig := domain.ReadinessSignal{Name: domain.SignalTMDBKey}
	var payload struct {
		Configured bool `json:"configured"`
	}
	if err := c.probe(ctx, "Client.ProbeTMDBKey", "/api/v1/setup/tmdb/status", &payload); err != nil {
		sig.Detail = probeDetail(err)
		return sig
	}
	sig.Satisfied = payload.Configured
	return sig
}

// ProbeTraktAuth reports whether a Trakt account has authorized the server.
func (c *Client) ProbeTraktAuth(ctx context.Context) domain.ReadinessSignal {
	sig := domain.ReadinessSignal{Name: domain.SignalTraktAuth}
	var payload struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.probe(ctx, "Client.ProbeTraktAuth", "/api/v1/auth/trakt/status", &payload); err != nil {
		sig.Detail = probeDetail(err)
		return sig
	}
	sig.Satisfied = payload.Authenticated
	return sig
}

// ProbeEnrichment reports whether the enrichment build has completed.
// This is the coarse ready flag; BuildStatus returns the rich job state.
func (c *Client) ProbeEnrichment(ctx context.Context) domain.ReadinessSignal {
	sig := domain.ReadinessSignal{Name: domain.SignalEnrichment}
	var payload struct {
		Ready bool `json:"ready"`
	}
	if err := c.probe(ctx, "Client.ProbeEnrichment", "/api/v1/enrichment/ready", &payload); err != nil {
		sig.Detail = probeDetail(err)
		return sig
	}
	sig.Satisfied = payload.Ready
	return sig
}

// ProbeAll runs every readiness probe concurrently and returns the combined
// snapshot. Total latency is bounded by the probe timeout, not the sum.
func (c *Client) ProbeAll(ctx context.Context) (domain.SignalSet, domain.ReadinessSignal) {
	ctx, span := tracer.StartSpan(ctx, "backend.probe_all")
	defer span.End()

	var (
		set        domain.SignalSet
		enrichment domain.ReadinessSignal
		wg         sync.WaitGroup
	)
	wg.Add(4)
	go func() { defer wg.Done(); set.Credentials = c.ProbeTraktCredentials(ctx) }()
	go func() { defer wg.Done(); set.Key = c.ProbeTMDBKey(ctx) }()
	go func() { defer wg.Done(); set.Auth = c.ProbeTraktAuth(ctx) }()
	go func() { defer wg.Done(); enrichment = c.ProbeEnrichment(ctx) }()
	wg.Wait()

	span.SetAttributes(
		tracer.BoolAttr("signal.credentials", set.Credentials.Satisfied),
		tracer.BoolAttr("signal.key", set.Key.Satisfied),
		tracer.BoolAttr("signal.auth", set.Auth.Satisfied),
		tracer.BoolAttr("signal.enrichment", enrichment.Satisfied),
	)
	tracer.SetOK(span)

	return set, enrichment
}

// TraktUser identifies the Trakt account that authorized the server.
type TraktUser struct {
	Username string `json:"username"`
	Slug     string `json:"slug"`
}

// AuthStatus returns the authorized Trakt user, or nil when no authorization
// has completed. Unlike the probe, this propagates errors: it backs informative
// surfaces, not readiness decisions.
func (c *Client) AuthStatus(ctx context.Context) (*TraktUser, error) {
	var payload struct {
		Authenticated bool       `json:"authenticated"`
		User          *TraktUser `json:"user"`
	}
	if err := c.getJSON(ctx, "Client.AuthStatus", "/api/v1/auth/trakt/status", &payload); err != nil {
		return nil, err
	}
	if !payload.Authenticated {
		return nil, nil
	}
	return payload.User, nil
}

// probe runs one GET under the probe timeout and logs the outcome.
func (c *Client) probe(ctx context.Context, op, path string, out any) error {
	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	err := c.getJSON(pctx, op, path, out)
	if err != nil {
		c.logger.Debug("probe failed", "op", op, "error", err, "code", domain.ErrorCodeOf(err))
	}
	return err
}

// probeDetail reduces an error to the short reason shown next to a pending
// signal. The full chain goes to the log, not the screen.
func probeDetail(err error) string {
	switch domain.ErrorCodeOf(err) {
	case domain.CodeTimeout:
		return "probe timed out"
	case domain.CodeBackendUnreachable:
		return "server unreachable"
	case domain.CodeNoBackend:
		return "no server configured"
	case domain.CodeRateLimit:
		return "rate limited"
	case domain.CodeAuthInvalid:
		return "not authorized"
	default:
		return "probe failed"
	}
}
