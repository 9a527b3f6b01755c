package domain

import "context"

// SetupBackend is the server surface the onboarding flow drives: persisting
// prerequisites, brokering the authorization handshake, and validating the
// finished setup. Implemented by the backend HTTP client.
type SetupBackend interface {
	// SaveTraktCredentials persists the Trakt application credentials.
	SaveTraktCredentials(ctx context.Context, clientID, clientSecret string) error
	// SaveRedirectURI persists the callback redirect URI. Must be called
	// before SaveTraktCredentials so the server never holds credentials
	// without a place to send the user back to.
	SaveRedirectURI(ctx context.Context, redirectURI string) error
	// SaveTMDBKey persists the TMDB API key after server-side validation.
	SaveTMDBKey(ctx context.Context, apiKey string) error
	// AuthorizeURL asks the server to build the provider authorization URL.
	AuthorizeURL(ctx context.Context) (string, error)
	// ExchangeCode sends the one-time code for token exchange.
	ExchangeCode(ctx context.Context, ticket HandshakeTicket) error
	// ValidateSetup asks the server to confirm the whole setup end to end.
	ValidateSetup(ctx context.Context) (ValidationOutcome, error)
}

// ReadinessProber evaluates the backend's configuration signals. Probes never
// return errors; a failed read surfaces as an unsatisfied signal carrying a
// Detail.
type ReadinessProber interface {
	ProbeAll(ctx context.Context) (SignalSet, ReadinessSignal)
}

// BuildBackend is the server surface for the enrichment build job.
type BuildBackend interface {
	BuildStatus(ctx context.Context) (BuildJobStatus, error)
	StartBuild(ctx context.Context, force bool) error
	SkipBuild(ctx context.Context) error
}

// SessionStore persists the client session between runs.
type SessionStore interface {
	LoadOrCreate() (Session, error)
	Save(Session) error
	Clear() error
}

// BuildHistory records finished enrichment runs locally.
type BuildHistory interface {
	Record(ctx context.Context, r BuildRecord) error
	Recent(ctx context.Context, limit int) ([]BuildRecord, error)
	LastCompleted(ctx context.Context) (*BuildRecord, error)
}
