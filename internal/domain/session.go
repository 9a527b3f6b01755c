package domain

import "context"

// Session is the client's persisted per-user state: a stable ULID identity,
// the backend last talked to, and the pending return location written by the
// callback listener. The pending location survives a process restart the way
// a URL survives a page reload, and is scrubbed after consumption for the
// same reason.
type Session struct {
	ID            string   // ULID, minted on first run
	BackendURL    string   // last backend the client connected to
	PendingReturn Location // redirect landing, scrubbed once consumed
}

type ctxKey string

const clientSessionKey ctxKey = "client_session"

// WithClientSession returns a context carrying the client session ULID.
func WithClientSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientSessionKey, id)
}

// ClientSessionFrom extracts the client session ULID, empty if unset.
func ClientSessionFrom(ctx context.Context) string {
	if v, ok := ctx.Value(clientSessionKey).(string); ok {
		return v
	}
	return ""
}
