package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the client domain.
var (
	ErrBackendUnreachable  = fmt.Errorf("backend unreachable")
	ErrBackendStatus       = fmt.Errorf("backend returned an error")
	ErrProviderUnavailable = fmt.Errorf("authorization provider unavailable")
	ErrSubmissionRejected  = fmt.Errorf("submission rejected")
	ErrExchangeFailed      = fmt.Errorf("code exchange failed")
	ErrAuthInvalid         = fmt.Errorf("authentication failed")
	ErrRateLimit           = fmt.Errorf("rate limit exceeded")
	ErrTimeout             = fmt.Errorf("operation timed out")
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrNoBackend           = fmt.Errorf("no backend configured")

	// Infra errors.
	ErrConfigLoad   = fmt.Errorf("failed to load configuration")
	ErrEncryption   = fmt.Errorf("encryption operation failed")
	ErrDecryption   = fmt.Errorf("decryption failed")
	ErrSessionStore = fmt.Errorf("session store failed")
	ErrHistoryStore = fmt.Errorf("history store failed")
	ErrDiscovery    = fmt.Errorf("discovery failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Client.ExchangeCode")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail, e.g. the server's rejection reason
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is transient: the next evaluation pass
// or a user retry may succeed without any state change.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrBackendUnreachable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimit)
}

// RejectionReason digs the server's stated reason out of a submission
// rejection, falling back to the generic message for other errors.
func RejectionReason(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorCode is a machine-parseable error category for logs and monitoring.
type ErrorCode string

const (
	CodeUnknown             ErrorCode = "UNKNOWN"
	CodeBackendUnreachable  ErrorCode = "BACKEND_UNREACHABLE"
	CodeBackendStatus       ErrorCode = "BACKEND_STATUS"
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	CodeSubmissionRejected  ErrorCode = "SUBMISSION_REJECTED"
	CodeExchangeFailed      ErrorCode = "EXCHANGE_FAILED"
	CodeAuthInvalid         ErrorCode = "AUTH_INVALID"
	CodeRateLimit           ErrorCode = "RATE_LIMIT"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeNoBackend           ErrorCode = "NO_BACKEND"
	CodeConfigLoad          ErrorCode = "CONFIG_LOAD"
	CodeEncryption          ErrorCode = "ENCRYPTION"
	CodeDecryption          ErrorCode = "DECRYPTION"
	CodeSessionStore        ErrorCode = "SESSION_STORE"
	CodeHistoryStore        ErrorCode = "HISTORY_STORE"
	CodeDiscovery           ErrorCode = "DISCOVERY"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrBackendUnreachable:  CodeBackendUnreachable,
	ErrBackendStatus:       CodeBackendStatus,
	ErrProviderUnavailable: CodeProviderUnavailable,
	ErrSubmissionRejected:  CodeSubmissionRejected,
	ErrExchangeFailed:      CodeExchangeFailed,
	ErrAuthInvalid:         CodeAuthInvalid,
	ErrRateLimit:           CodeRateLimit,
	ErrTimeout:             CodeTimeout,
	ErrInvalidInput:        CodeInvalidInput,
	ErrNoBackend:           CodeNoBackend,
	ErrConfigLoad:          CodeConfigLoad,
	ErrEncryption:          CodeEncryption,
	ErrDecryption:          CodeDecryption,
	ErrSessionStore:        CodeSessionStore,
	ErrHistoryStore:        CodeHistoryStore,
	ErrDiscovery:           CodeDiscovery,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and walks the chain with errors.Is.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[err]; ok {
		return code
	}
	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	if code, ok := errorCodeMap[e.Err]; ok {
		return code
	}
	return CodeUnknown
}
