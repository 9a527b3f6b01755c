// Package callback runs the loopback HTTP listener that captures the
// authorization return visit. The listener records the full visible location
// and hands it to the handshake broker untouched; parsing and scrubbing the
// query parameters is the broker's job, not the listener's.
package callback

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"reelist/internal/domain"
	"reelist/internal/infra/config"
)

// Path is the route the redirect URI points at.
const Path = domain.CallbackPath

// Listener serves the authorization callback endpoint for the duration of one
// authorize step. Create a fresh Listener per attempt; Start is one-shot.
type Listener struct {
	addr      string
	logger    *slog.Logger
	httpSrv   *http.Server
	locations chan domain.Location
	ready     chan struct{}
	boundAddr string
}

// New creates a listener bound to cfg.Bind:cfg.Port.
func New(cfg config.CallbackConfig, logger *slog.Logger) *Listener {
	return &Listener{
		addr:      fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		logger:    logger,
		locations: make(chan domain.Location, 1),
		ready:     make(chan struct{}),
	}
}

// Start begins serving the callback endpoint. Blocks until the context is
// cancelled or Stop is called. A listen failure (typically the port already
// taken) returns immediately so the caller can fall back to paste mode.
func (l *Listener) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, l.handleCallback)

	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("callback listen: %w", err)
	}
	l.boundAddr = listener.Addr().String()
	l.httpSrv = &http.Server{Handler: mux}
	close(l.ready)

	l.logger.Info("callback listener started", "addr", l.boundAddr)

	go func() {
		<-ctx.Done()
		l.Stop(context.Background())
	}()

	if err := l.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("callback serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the listener. Safe to call when Start never
// got as far as binding.
func (l *Listener) Stop(ctx context.Context) error {
	select {
	case <-l.ready:
	default:
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.httpSrv.Shutdown(shutdownCtx)
}

// Ready is closed once the listener has bound its port. BoundAddr is valid
// after that.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// BoundAddr returns the actual address the listener bound to.
func (l *Listener) BoundAddr() string { return l.boundAddr }

// Locations delivers the captured return location. The channel holds at most
// one entry; the first visit wins.
func (l *Listener) Locations() <-chan domain.Location { return l.locations }

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	loc := domain.Location("http://" + r.Host + r.URL.String())

	select {
	case l.locations <- loc:
		// Never log the location itself: it carries the authorization code.
		l.logger.Info("authorization return captured")
	default:
		l.logger.Debug("duplicate callback visit ignored")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("error") != "" {
		fmt.Fprint(w, deniedPage)
		return
	}
	fmt.Fprint(w, successPage)
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Reelist</title></head>
<body style="background:#1a1b26;color:#c0caf5;font-family:monospace;display:flex;align-items:center;justify-content:center;height:100vh;margin:0">
<div style="text-align:center">
<h1>Authorization received</h1>
<p>You can close this tab and return to the terminal.</p>
</div>
</body>
</html>
`

const deniedPage = `<!DOCTYPE html>
<html>
<head><title>Reelist</title></head>
<body style="background:#1a1b26;color:#f7768e;font-family:monospace;display:flex;align-items:center;justify-content:center;height:100vh;margin:0">
<div style="text-align:center">
<h1>Authorization was not granted</h1>
<p>Return to the terminal to try again.</p>
</div>
</body>
</html>
`
