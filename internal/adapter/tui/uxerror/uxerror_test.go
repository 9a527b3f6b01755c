package uxerror

import (
	"errors"
	"strings"
	"testing"

	"reelist/internal/domain"
)

func TestHumanizeSentinels(t *testing.T) {
	tests := []struct {
		err       error
		wantTitle string
	}{
		{domain.NewDomainError("op", domain.ErrNoBackend, ""), "No Server Configured"},
		{domain.NewDomainError("op", domain.ErrBackendUnreachable, "circuit open"), "Server Unreachable"},
		{domain.NewDomainError("op", domain.ErrProviderUnavailable, ""), "Trakt Not Responding"},
		{domain.NewDomainError("op", domain.ErrRateLimit, ""), "Rate Limited"},
		{domain.NewDomainError("op", domain.ErrTimeout, ""), "Request Timed Out"},
	}
	for _, tt := range tests {
		fe := Humanize(tt.err)
		if fe.Title != tt.wantTitle {
			t.Errorf("Humanize(%v).Title = %q, want %q", tt.err, fe.Title, tt.wantTitle)
		}
		if fe.Raw == "" {
			t.Errorf("Humanize(%v) lost the raw error", tt.err)
		}
	}
}

func TestHumanizeCarriesServerReason(t *testing.T) {
	err := domain.NewDomainError("Client.SaveTMDBKey", domain.ErrSubmissionRejected, "TMDB validation failed")
	fe := Humanize(err)
	if fe.Title != "Rejected by Server" {
		t.Fatalf("Title = %q", fe.Title)
	}
	if fe.Message != "TMDB validation failed" {
		t.Errorf("Message = %q, want the server's reason", fe.Message)
	}
}

func TestHumanizeExchangeFailure(t *testing.T) {
	err := domain.NewDomainError("Client.ExchangeCode", domain.ErrExchangeFailed, "authorization code expired")
	fe := Humanize(err)
	if fe.Title != "Authorization Not Accepted" {
		t.Fatalf("Title = %q", fe.Title)
	}
	if fe.Message != "authorization code expired" {
		t.Errorf("Message = %q", fe.Message)
	}
}

func TestHumanizeStringPatterns(t *testing.T) {
	fe := Humanize(errors.New("listen tcp 0.0.0.0:8585: bind: address already in use"))
	if fe.Title != "Port In Use" {
		t.Errorf("Title = %q, want Port In Use", fe.Title)
	}
}

func TestHumanizeFallback(t *testing.T) {
	fe := Humanize(errors.New("something odd"))
	if fe.Title != "Unexpected Error" {
		t.Errorf("Title = %q", fe.Title)
	}
	if fe.Message != "something odd" {
		t.Errorf("Message = %q", fe.Message)
	}
}

func TestRenderIncludesHints(t *testing.T) {
	fe := Humanize(domain.NewDomainError("op", domain.ErrNoBackend, ""))
	out := fe.Render()
	if !strings.Contains(out, "Suggestions:") {
		t.Errorf("Render() missing hints section:\n%s", out)
	}
	if !strings.Contains(out, "reelist discover") {
		t.Errorf("Render() missing the discover hint:\n%s", out)
	}
}
