// Package integration exercises the real client stack (backend client,
// handshake broker, setup service, monitor session, local stores) against an
// in-process fake of the Reelist server.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"reelist/internal/domain"
)

// FakeServer is an in-process stand-in for the Reelist server API. Its state
// machine mirrors the real setup surface: saving credentials and the key flips
// the configured flags, a successful code exchange flips authentication, and
// the enrichment job advances one step per status poll once started.
//
// The credentials endpoint rejects saves that arrive before a redirect URI,
// which is the ordering the real server depends on for the handshake.
type FakeServer struct {
	srv *httptest.Server

	mu              sync.Mutex
	traktConfigured bool
	tmdbConfigured  bool
	authenticated   bool
	redirectURI     string
	acceptKey       string
	mintedState     string
	exchanges       int
	starts          int
	skipped         bool
	build           domain.BuildJobStatus
	pollsToFinish   int
}

// NewFakeServer starts a fake Reelist server that is torn down with the test.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	f := &FakeServer{
		acceptKey:     "tmdb-good-key",
		mintedState:   "srv-state-1",
		build:         domain.BuildJobStatus{State: domain.BuildNotStarted},
		pollsToFinish: 3,
	}
	f.srv = httptest.NewServer(f.handler())
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the fake server's base URL.
func (f *FakeServer) URL() string { return f.srv.URL }

// Seed sets the setup flags directly, for tests that start mid-flow.
func (f *FakeServer) Seed(trakt, tmdb, auth bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traktConfigured, f.tmdbConfigured, f.authenticated = trakt, tmdb, auth
	if trakt {
		f.redirectURI = "http://seeded/callback"
	}
}

// Exchanges returns how many exchange calls reached the server.
func (f *FakeServer) Exchanges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

// Starts returns how many enrichment start calls reached the server.
func (f *FakeServer) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/v1/setup/trakt/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]bool{"configured": f.traktConfigured})
	})

	mux.HandleFunc("/api/v1/setup/tmdb/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]bool{"configured": f.tmdbConfigured})
	})

	mux.HandleFunc("/api/v1/auth/trakt/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.authenticated {
			writeJSON(w, map[string]any{"authenticated": false})
			return
		}
		writeJSON(w, map[string]any{
			"authenticated": true,
			"user":          map[string]string{"username": "moviefan", "slug": "moviefan"},
		})
	})

	mux.HandleFunc("/api/v1/setup/trakt/redirect-uri", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RedirectURI string `json:"redirect_uri"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RedirectURI == "" {
			writeError(w, http.StatusBadRequest, "redirect_uri is required")
			return
		}
		f.mu.Lock()
		f.redirectURI = body.RedirectURI
		f.mu.Unlock()
		writeJSON(w, map[string]bool{"saved": true})
	})

	mux.HandleFunc("/api/v1/setup/trakt/credentials", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.redirectURI == "" {
			writeError(w, http.StatusBadRequest, "no redirect URI on file")
			return
		}
		var body struct {
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ClientID == "" {
			writeError(w, http.StatusBadRequest, "client_id is required")
			return
		}
		f.traktConfigured = true
		writeJSON(w, map[string]bool{"saved": true})
	})

	mux.HandleFunc("/api/v1/setup/tmdb/key", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if body.APIKey != f.acceptKey {
			writeError(w, http.StatusBadRequest, "TMDB rejected the key")
			return
		}
		f.tmdbConfigured = true
		writeJSON(w, map[string]bool{"saved": true})
	})

	mux.HandleFunc("/api/v1/auth/trakt/authorize-url", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.traktConfigured {
			writeError(w, http.StatusInternalServerError, "trakt credentials not configured")
			return
		}
		authURL := fmt.Sprintf("https://trakt.example/oauth/authorize?client_id=cid&state=%s", f.mintedState)
		writeJSON(w, map[string]string{"auth_url": authURL})
	})

	mux.HandleFunc("/api/v1/auth/trakt/exchange", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code  string `json:"code"`
			State string `json:"state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad request body")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.exchanges++
		if body.Code != "good-code" || body.State != f.mintedState {
			writeError(w, http.StatusBadRequest, "invalid grant")
			return
		}
		f.authenticated = true
		writeJSON(w, map[string]bool{"authenticated": true})
	})

	mux.HandleFunc("/api/v1/setup/validate", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		valid := f.traktConfigured && f.tmdbConfigured && f.authenticated
		var errs []string
		if !valid {
			errs = append(errs, "setup incomplete")
		}
		writeJSON(w, map[string]any{
			"valid":               valid,
			"errors":              errs,
			"trakt_configured":    f.traktConfigured,
			"tmdb_configured":     f.tmdbConfigured,
			"trakt_authenticated": f.authenticated,
		})
	})

	mux.HandleFunc("/api/v1/enrichment/ready", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ready := f.skipped || f.build.State == domain.BuildComplete || f.build.State == domain.BuildPartial
		writeJSON(w, map[string]bool{"ready": ready})
	})

	mux.HandleFunc("/api/v1/enrichment/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.build.State == domain.BuildRunning {
			f.build.Processed += f.build.Total / f.pollsToFinish
			f.build.UpdatedAt = time.Now()
			if f.build.Processed >= f.build.Total {
				f.build.Processed = f.build.Total
				f.build.State = domain.BuildComplete
			}
		}
		writeJSON(w, f.build)
	})

	mux.HandleFunc("/api/v1/enrichment/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.starts++
		if f.build.State != domain.BuildRunning {
			f.build = domain.BuildJobStatus{
				State:     domain.BuildRunning,
				Total:     120,
				Processed: 0,
				StartedAt: time.Now(),
			}
		}
		writeJSON(w, map[string]bool{"started": true})
	})

	mux.HandleFunc("/api/v1/enrichment/skip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.skipped = true
		writeJSON(w, map[string]bool{"skipped": true})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// NewTestContext creates a context that is cancelled with the test.
func NewTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// SkipIfShort skips flow tests in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping flow test in short mode")
	}
}
