package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Client.SaveTMDBKey", ErrSubmissionRejected, "key is not valid for v3 API")
	want := "Client.SaveTMDBKey: key is not valid for v3 API: submission rejected"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Client.AuthorizeURL", ErrProviderUnavailable, "")
	want := "Client.AuthorizeURL: authorization provider unavailable"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Client.ExchangeCode", ErrExchangeFailed, "invalid code")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Error("errors.Is should match ErrExchangeFailed")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := NewDomainError("Client.ProbeAll", ErrBackendUnreachable, "connection refused")
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should match *DomainError")
	}
	if de.Op != "Client.ProbeAll" {
		t.Errorf("Op = %q, want %q", de.Op, "Client.ProbeAll")
	}
}

func TestWrapOpNil(t *testing.T) {
	if WrapOp("anything", nil) != nil {
		t.Error("WrapOp(nil) should be nil")
	}
}

func TestErrorCodeOf(t *testing.T) {
	assert.Equal(t, CodeBackendUnreachable, ErrorCodeOf(ErrBackendUnreachable))
	assert.Equal(t, CodeExchangeFailed, ErrorCodeOf(NewDomainError("op", ErrExchangeFailed, "")))
	assert.Equal(t, CodeRateLimit, ErrorCodeOf(fmt.Errorf("outer: %w", ErrRateLimit)))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(errors.New("unrelated")))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(nil))
}

func TestIsRetryableError(t *testing.T) {
	for _, err := range []error{ErrBackendUnreachable, ErrTimeout, ErrRateLimit} {
		if !IsRetryableError(err) {
			t.Errorf("%v should be retryable", err)
		}
	}
	if IsRetryableError(ErrSubmissionRejected) {
		t.Error("a rejection is not retryable without new input")
	}
}

func TestRejectionReason(t *testing.T) {
	err := NewDomainError("Client.SaveTMDBKey", ErrSubmissionRejected, "key revoked")
	if got := RejectionReason(err); got != "key revoked" {
		t.Errorf("RejectionReason = %q, want %q", got, "key revoked")
	}
	plain := errors.New("boom")
	if got := RejectionReason(plain); got != "boom" {
		t.Errorf("RejectionReason fallback = %q", got)
	}
}
