package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelist/internal/domain"
	"reelist/internal/infra/config"
)

// readinessHandler serves the four probe endpoints with fixed answers.
func readinessHandler(creds, key, auth, ready bool, delay time.Duration) http.Handler {
	flag := func(field string, v bool) string {
		if v {
			return `{"` + field + `":true}`
		}
		return `{"` + field + `":false}`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/setup/trakt/status":
			io.WriteString(w, flag("configured", creds))
		case "/api/v1/setup/tmdb/status":
			io.WriteString(w, flag("configured", key))
		case "/api/v1/auth/trakt/status":
			io.WriteString(w, flag("authenticated", auth))
		case "/api/v1/enrichment/ready":
			io.WriteString(w, flag("ready", ready))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestProbeSatisfied(t *testing.T) {
	server := httptest.NewServer(readinessHandler(true, true, true, true, 0))
	defer server.Close()

	sig := newTestClient(server.URL).ProbeTraktCredentials(context.Background())
	if sig.Name != domain.SignalTraktCredentials {
		t.Errorf("Name = %q", sig.Name)
	}
	if !sig.Satisfied {
		t.Error("Satisfied = false, want true")
	}
	if sig.Detail != "" {
		t.Errorf("Detail = %q, want empty on clean probe", sig.Detail)
	}
}

func TestProbeUnsatisfiedIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(readinessHandler(false, false, false, false, 0))
	defer server.Close()

	sig := newTestClient(server.URL).ProbeTMDBKey(context.Background())
	if sig.Satisfied {
		t.Error("Satisfied = true, want false")
	}
	if sig.Detail != "" {
		t.Errorf("Detail = %q, want empty: a clean 'no' is not an outage", sig.Detail)
	}
}

func TestProbeServerErrorYieldsSafeDefault(t *testing.T) {
	server := srvWithStatus(http.StatusInternalServerError, `boom`)
	defer server.Close()

	sig := newTestClient(server.URL).ProbeTraktAuth(context.Background())
	if sig.Satisfied {
		t.Error("Satisfied = true after server error, want safe default false")
	}
	if sig.Detail == "" {
		t.Error("Detail empty, want failure reason")
	}
}

func TestProbeUnreachableDetail(t *testing.T) {
	server := srvWithStatus(http.StatusOK, `{}`)
	url := server.URL
	server.Close()

	sig := newTestClient(url).ProbeEnrichment(context.Background())
	if sig.Satisfied {
		t.Error("Satisfied = true, want false")
	}
	if sig.Detail != "server unreachable" {
		t.Errorf("Detail = %q, want %q", sig.Detail, "server unreachable")
	}
}

func TestProbeTimesOutIndependently(t *testing.T) {
	server := httptest.NewServer(readinessHandler(true, true, true, true, 300*time.Millisecond))
	defer server.Close()

	c := New(config.BackendConfig{
		URL:           server.URL,
		Timeout:       2 * time.Second,
		ProbeTimeout:  50 * time.Millisecond,
		RatePerSecond: 200,
		RateBurst:     200,
	}, newTestLogger())

	sig := c.ProbeTraktCredentials(context.Background())
	if sig.Satisfied {
		t.Error("Satisfied = true, want false on timeout")
	}
	if sig.Detail != "probe timed out" {
		t.Errorf("Detail = %q, want %q", sig.Detail, "probe timed out")
	}
}

func TestProbeAllRunsConcurrently(t *testing.T) {
	const perProbe = 150 * time.Millisecond
	server := httptest.NewServer(readinessHandler(true, false, true, false, perProbe))
	defer server.Close()

	start := time.Now()
	set, enrichment := newTestClient(server.URL).ProbeAll(context.Background())
	elapsed := time.Since(start)

	// Four serial probes would take 600ms; concurrent ones roughly one.
	if elapsed > 3*perProbe {
		t.Errorf("ProbeAll took %v, want concurrent execution", elapsed)
	}

	if !set.Credentials.Satisfied || set.Key.Satisfied || !set.Auth.Satisfied {
		t.Errorf("signals = %+v, wrong flags", set)
	}
	if enrichment.Satisfied {
		t.Error("enrichment Satisfied = true, want false")
	}
}

func TestProbeAllConfirmedOutage(t *testing.T) {
	server := srvWithStatus(http.StatusOK, `{}`)
	url := server.URL
	server.Close()

	set, enrichment := newTestClient(url).ProbeAll(context.Background())
	if set.AllSatisfied() {
		t.Error("AllSatisfied = true during outage")
	}
	if !set.AllFailed() {
		t.Error("AllFailed = false, want true when every probe errored")
	}
	if enrichment.Detail == "" {
		t.Error("enrichment Detail empty, want failure reason")
	}
}

func TestAuthStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"authenticated":true,"user":{"username":"casey","slug":"casey"}}`)
	}))
	defer server.Close()

	user, err := newTestClient(server.URL).AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus: %v", err)
	}
	if user == nil || user.Username != "casey" {
		t.Errorf("user = %+v, want casey", user)
	}
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"authenticated":false}`)
	}))
	defer server.Close()

	user, err := newTestClient(server.URL).AuthStatus(context.Background())
	if err != nil {
		t.Fatalf("AuthStatus: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}
