package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"reelist/internal/domain"
)

func TestSaveTraktCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/setup/trakt/credentials" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.ClientID != "abc123" || body.ClientSecret != "s3cret" {
			t.Errorf("body = %+v", body)
		}
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).SaveTraktCredentials(context.Background(), "abc123", "s3cret")
	if err != nil {
		t.Fatalf("SaveTraktCredentials: %v", err)
	}
}

func TestSaveTraktCredentialsEmptyInput(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	err := newTestClient(server.URL).SaveTraktCredentials(context.Background(), "", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if hits.Load() != 0 {
		t.Error("empty input must not reach the server")
	}
}

func TestSaveRedirectURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/setup/trakt/redirect-uri" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			RedirectURI string `json:"redirect_uri"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.RedirectURI != "http://mediabox:8585/callback" {
			t.Errorf("redirect_uri = %q", body.RedirectURI)
		}
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).SaveRedirectURI(context.Background(), "http://mediabox:8585/callback")
	if err != nil {
		t.Fatalf("SaveRedirectURI: %v", err)
	}
}

func TestSaveTMDBKeyRejection(t *testing.T) {
	server := srvWithStatus(http.StatusBadRequest, `{"error":"key failed TMDB validation"}`)
	defer server.Close()

	err := newTestClient(server.URL).SaveTMDBKey(context.Background(), "bad-key")
	if !errors.Is(err, domain.ErrSubmissionRejected) {
		t.Fatalf("error = %v, want ErrSubmissionRejected", err)
	}
	if got := domain.RejectionReason(err); !strings.Contains(got, "TMDB validation") {
		t.Errorf("RejectionReason = %q, want server's reason", got)
	}
}

func TestAuthorizeURL(t *testing.T) {
	const authURL = "https://trakt.tv/oauth/authorize?response_type=code&client_id=abc"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/trakt/authorize-url" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"auth_url": authURL})
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).AuthorizeURL(context.Background())
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}
	if got != authURL {
		t.Errorf("url = %q, want %q", got, authURL)
	}
}

func TestAuthorizeURLProviderDown(t *testing.T) {
	server := srvWithStatus(http.StatusBadGateway, `{"error":"trakt did not respond"}`)
	defer server.Close()

	_, err := newTestClient(server.URL).AuthorizeURL(context.Background())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
	if got := domain.RejectionReason(err); !strings.Contains(got, "trakt did not respond") {
		t.Errorf("RejectionReason = %q, want upstream reason preserved", got)
	}
}

func TestAuthorizeURLEmptyResponse(t *testing.T) {
	server := srvWithStatus(http.StatusOK, `{}`)
	defer server.Close()

	_, err := newTestClient(server.URL).AuthorizeURL(context.Background())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable for missing URL", err)
	}
}

func TestExchangeCode(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/v1/auth/trakt/exchange" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Code  string `json:"code"`
			State string `json:"state"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Code != "authcode42" || body.State != "xyzzy" {
			t.Errorf("body = %+v", body)
		}
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	ticket := domain.HandshakeTicket{Code: "authcode42", State: "xyzzy"}
	if err := newTestClient(server.URL).ExchangeCode(context.Background(), ticket); err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want exactly 1", hits.Load())
	}
}

func TestExchangeCodeEmptyTicket(t *testing.T) {
	err := newTestClient("http://unused.invalid").ExchangeCode(context.Background(), domain.HandshakeTicket{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	server := srvWithStatus(http.StatusBadRequest, `{"error":"authorization code expired"}`)
	defer server.Close()

	err := newTestClient(server.URL).ExchangeCode(context.Background(), domain.HandshakeTicket{Code: "stale"})
	if !errors.Is(err, domain.ErrExchangeFailed) {
		t.Fatalf("error = %v, want ErrExchangeFailed", err)
	}
	if got := domain.RejectionReason(err); !strings.Contains(got, "expired") {
		t.Errorf("RejectionReason = %q, want server's reason", got)
	}
}

func TestExchangeCodeProviderDown(t *testing.T) {
	server := srvWithStatus(http.StatusServiceUnavailable, `{"error":"trakt timeout"}`)
	defer server.Close()

	err := newTestClient(server.URL).ExchangeCode(context.Background(), domain.HandshakeTicket{Code: "ok"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestValidateSetup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/setup/validate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{
			"valid": false,
			"errors": ["TMDB key missing"],
			"trakt_configured": true,
			"tmdb_configured": false,
			"trakt_authenticated": true
		}`)
	}))
	defer server.Close()

	outcome, err := newTestClient(server.URL).ValidateSetup(context.Background())
	if err != nil {
		t.Fatalf("ValidateSetup: %v", err)
	}
	if outcome.Valid {
		t.Error("Valid = true, want false")
	}
	if len(outcome.Errors) != 1 || outcome.Errors[0] != "TMDB key missing" {
		t.Errorf("Errors = %v", outcome.Errors)
	}
	if !outcome.TraktConfigured || outcome.TMDBConfigured || !outcome.TraktAuthenticated {
		t.Errorf("flags = %+v", outcome)
	}
	if got := outcome.RollbackStep(); got != domain.StepSecondaryKey {
		t.Errorf("RollbackStep = %v, want StepSecondaryKey", got)
	}
}
