// Package usecase holds the orchestration layer between the terminal UI and
// the adapters: the authorization handshake broker, the setup flow, and the
// enrichment build monitor.
package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"reelist/internal/domain"
	"reelist/internal/infra/tracer"

	"github.com/oklog/ulid/v2"
)

// ConsumeOutcome classifies what a consume pass did with a return location.
type ConsumeOutcome int

const (
	// ConsumeNothing means the location carried no handshake ticket. Plain
	// visits, denied returns, and already-scrubbed locations all land here.
	ConsumeNothing ConsumeOutcome = iota
	// ConsumeExchanged means the code was sent and the exchange succeeded.
	ConsumeExchanged
	// ConsumeFailed means the code was sent and the exchange failed. The
	// location is scrubbed anyway; the user restarts from the authorize step.
	ConsumeFailed
	// ConsumeAlreadyDone means this location was consumed earlier in this
	// process. The code never goes over the wire twice.
	ConsumeAlreadyDone
)

// String returns the outcome name for logs.
func (o ConsumeOutcome) String() string {
	switch o {
	case ConsumeNothing:
		return "nothing"
	case ConsumeExchanged:
		return "exchanged"
	case ConsumeFailed:
		return "failed"
	case ConsumeAlreadyDone:
		return "already_done"
	default:
		return "unknown"
	}
}

// Broker owns the return leg of the authorization handshake. Return locations
// arrive from the callback listener, from a pasted URL, or from the session
// file after a restart; the broker extracts the one-time ticket, exchanges it
// exactly once, and makes sure the stored location loses its replayable
// parameters no matter how the exchange went.
type Broker struct {
	backend  domain.SetupBackend
	sessions domain.SessionStore
	logger   *slog.Logger

	mu       sync.Mutex
	consumed map[domain.Location]struct{}
	attempt  string // ULID of the current authorize attempt, for log correlation
}

// NewBroker creates a handshake broker.
func NewBroker(backend domain.SetupBackend, sessions domain.SessionStore, logger *slog.Logger) *Broker {
	return &Broker{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
		consumed: make(map[domain.Location]struct{}),
	}
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// BeginAuthorization asks the server for the provider authorization URL and
// mints a fresh attempt ID so every log line from browser launch to exchange
// can be correlated. The server builds the URL; the state parameter inside it
// is the server's to generate and verify.
func (b *Broker) BeginAuthorization(ctx context.Context) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "broker.begin_authorization")
	defer span.End()

	authURL, err := b.backend.AuthorizeURL(ctx)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	b.mu.Lock()
	b.attempt = generateULID(time.Now())
	attempt := b.attempt
	b.mu.Unlock()

	b.logger.Info("authorization attempt started", "attempt", attempt)
	tracer.SetOK(span)
	return authURL, nil
}

// Attempt returns the ULID of the current authorize attempt, empty before the
// first BeginAuthorization.
func (b *Broker) Attempt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempt
}

// RecordReturn persists a freshly arrived return location so it survives a
// restart the way a URL survives a page reload. The location is stored as-is;
// the session store encrypts it at rest because it still carries the code.
func (b *Broker) RecordReturn(loc domain.Location) error {
	sess, err := b.sessions.LoadOrCreate()
	if err != nil {
		return err
	}
	sess.PendingReturn = loc
	if err := b.sessions.Save(sess); err != nil {
		return err
	}
	// Never log the location itself.
	b.logger.Info("authorization return recorded", "attempt", b.Attempt())
	return nil
}

// PendingReturn loads the persisted return location, empty when none.
func (b *Broker) PendingReturn() (domain.Location, error) {
	sess, err := b.sessions.LoadOrCreate()
	if err != nil {
		return "", err
	}
	return sess.PendingReturn, nil
}

// Consume evaluates a return location and, when it carries a ticket, performs
// the exchange. The location is marked consumed before the code goes over the
// wire so a concurrent consume of the same location cannot send it twice, and
// the stored copy is scrubbed whether or not the exchange succeeded.
func (b *Broker) Consume(ctx context.Context, loc domain.Location) (ConsumeOutcome, error) {
	ticket, ok := domain.ExtractTicket(loc)
	if !ok {
		return ConsumeNothing, nil
	}

	b.mu.Lock()
	if _, done := b.consumed[loc]; done {
		b.mu.Unlock()
		return ConsumeAlreadyDone, nil
	}
	b.consumed[loc] = struct{}{}
	attempt := b.attempt
	b.mu.Unlock()

	ctx, span := tracer.StartSpan(ctx, "broker.consume",
		trace.WithAttributes(tracer.BoolAttr("handshake.has_state", ticket.State != "")),
	)
	defer span.End()

	// Tag the exchange with the client session so the server can correlate it.
	if sess, err := b.sessions.LoadOrCreate(); err == nil && sess.ID != "" {
		ctx = domain.WithClientSession(ctx, sess.ID)
	}

	exchErr := b.backend.ExchangeCode(ctx, ticket)

	// The code has now been on the wire once. The stored location must lose
	// its one-time parameters before anything else can observe it, success
	// or not.
	if err := b.scrubPending(loc); err != nil {
		b.logger.Error("scrubbed return could not be persisted",
			"error", err, "error_code", domain.ErrorCodeOf(err), "attempt", attempt)
	}

	if exchErr != nil {
		tracer.RecordError(span, exchErr)
		b.logger.Warn("code exchange failed",
			"error_code", domain.ErrorCodeOf(exchErr), "attempt", attempt)
		return ConsumeFailed, exchErr
	}

	tracer.SetOK(span)
	b.logger.Info("authorization completed", "attempt", attempt)
	return ConsumeExchanged, nil
}

// scrubPending replaces the persisted return location with its scrubbed form.
// A session that cannot be read is replaced rather than left holding a spent
// code.
func (b *Broker) scrubPending(loc domain.Location) error {
	sess, err := b.sessions.LoadOrCreate()
	if err != nil {
		sess = domain.Session{ID: generateULID(time.Now())}
	}
	sess.PendingReturn = domain.Scrub(loc)
	return b.sessions.Save(sess)
}
