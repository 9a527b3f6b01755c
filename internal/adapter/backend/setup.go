package backend

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"reelist/internal/domain"
	"reelist/internal/infra/tracer"
)

// Setup submission operations. Each call is a single attempt: retry policy
// belongs to the caller, who knows whether the user asked again.

// SaveTraktCredentials registers the Trakt application credentials with the
// server. A rejection carries the server's stated reason and leaves the
// current step unchanged.
func (c *Client) SaveTraktCredentials(ctx context.Context, clientID, clientSecret string) error {
	const op = "Client.SaveTraktCredentials"

	if clientID == "" || clientSecret == "" {
		return domain.NewDomainError(op, domain.ErrInvalidInput, "client ID and secret are required")
	}

	ctx, span := tracer.StartSpan(ctx, "backend.save_credentials")
	defer span.End()

	payload := struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}{ClientID: clientID, ClientSecret: clientSecret}

	if err := c.postJSON(ctx, op, "/api/v1/setup/trakt/credentials", payload, nil); err != nil {
		tracer.RecordError(span, err)
		return err
	}

	tracer.SetOK(span)
	c.logger.Info("trakt credentials saved")
	return nil
}

// SaveRedirectURI registers the callback redirect URI with the server. This
// must land before credentials are submitted so the authorization session the
// server prepares already points at a reachable host.
func (c *Client) SaveRedirectURI(ctx context.Context, redirectURI string) error {
	const op = "Client.SaveRedirectURI"

	if redirectURI == "" {
		return domain.NewDomainError(op, domain.ErrInvalidInput, "redirect URI is required")
	}

	payload := struct {
		RedirectURI string `json:"redirect_uri"`
	}{RedirectURI: redirectURI}

	if err := c.postJSON(ctx, op, "/api/v1/setup/trakt/redirect-uri", payload, nil); err != nil {
		return err
	}

	c.logger.Info("redirect URI saved", "redirect_uri", redirectURI)
	return nil
}

// SaveTMDBKey registers the TMDB API key. The server validates the key
// synchronously against TMDB, so a rejection means the key itself is bad.
func (c *Client) SaveTMDBKey(ctx context.Context, apiKey string) error {
	const op = "Client.SaveTMDBKey"

	if apiKey == "" {
		return domain.NewDomainError(op, domain.ErrInvalidInput, "API key is required")
	}

	ctx, span := tracer.StartSpan(ctx, "backend.save_tmdb_key")
	defer span.End()

	payload := struct {
		APIKey string `json:"api_key"`
	}{APIKey: apiKey}

	if err := c.postJSON(ctx, op, "/api/v1/setup/tmdb/key", payload, nil); err != nil {
		tracer.RecordError(span, err)
		return err
	}

	tracer.SetOK(span)
	c.logger.Info("tmdb key saved")
	return nil
}

// AuthorizeURL asks the server to begin an authorization session and returns
// the provider URL the user must open. The endpoint brokers a session with
// Trakt, so a server-side failure here means the provider leg is down.
func (c *Client) AuthorizeURL(ctx context.Context) (string, error) {
	const op = "Client.AuthorizeURL"

	ctx, span := tracer.StartSpan(ctx, "backend.authorize_url")
	defer span.End()

	var payload struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.getJSON(ctx, op, "/api/v1/auth/trakt/authorize-url", &payload); err != nil {
		if errors.Is(err, domain.ErrBackendStatus) {
			err = domain.NewDomainError(op, domain.ErrProviderUnavailable, domain.RejectionReason(err))
		}
		tracer.RecordError(span, err)
		return "", err
	}
	if payload.AuthURL == "" {
		err := domain.NewDomainError(op, domain.ErrProviderUnavailable, "server returned no authorization URL")
		tracer.RecordError(span, err)
		return "", err
	}

	tracer.SetOK(span)
	return payload.AuthURL, nil
}

// ExchangeCode hands the captured authorization ticket to the server, which
// performs the token exchange with Trakt. Call this at most once per ticket;
// authorization codes are single-use.
func (c *Client) ExchangeCode(ctx context.Context, ticket domain.HandshakeTicket) error {
	const op = "Client.ExchangeCode"

	if ticket.Code == "" {
		return domain.NewDomainError(op, domain.ErrInvalidInput, "authorization code is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "backend.exchange_code",
		trace.WithAttributes(tracer.BoolAttr("handshake.has_state", ticket.State != "")),
	)
	defer span.End()

	payload := struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}{Code: ticket.Code, State: ticket.State}

	if err := c.postJSON(ctx, op, "/api/v1/auth/trakt/exchange", payload, nil); err != nil {
		switch {
		case errors.Is(err, domain.ErrSubmissionRejected):
			// The server understood and refused: expired or reused code,
			// state mismatch. Distinct from the provider being down.
			err = domain.NewDomainError(op, domain.ErrExchangeFailed, domain.RejectionReason(err))
		case errors.Is(err, domain.ErrBackendStatus):
			err = domain.NewDomainError(op, domain.ErrProviderUnavailable, domain.RejectionReason(err))
		}
		tracer.RecordError(span, err)
		return err
	}

	tracer.SetOK(span)
	c.logger.Info("authorization code exchanged")
	return nil
}

// ValidateSetup asks the server for the authoritative verdict on the whole
// setup. The outcome, not any locally cached signal, decides completion.
func (c *Client) ValidateSetup(ctx context.Context) (domain.ValidationOutcome, error) {
	const op = "Client.ValidateSetup"

	ctx, span := tracer.StartSpan(ctx, "backend.validate_setup")
	defer span.End()

	var outcome domain.ValidationOutcome
	if err := c.getJSON(ctx, op, "/api/v1/setup/validate", &outcome); err != nil {
		tracer.RecordError(span, err)
		return domain.ValidationOutcome{}, err
	}

	span.SetAttributes(tracer.BoolAttr("setup.valid", outcome.Valid))
	tracer.SetOK(span)
	return outcome, nil
}
