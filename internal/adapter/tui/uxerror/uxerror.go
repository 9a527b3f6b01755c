// Package uxerror translates raw errors into user-friendly messages with
// recovery hints for the TUI.
package uxerror

import (
	"errors"
	"fmt"
	"strings"

	"reelist/internal/adapter/tui/theme"
	"reelist/internal/domain"
)

// FriendlyError is a user-facing error with suggestions for recovery.
type FriendlyError struct {
	Title   string   // short heading, e.g. "Server Unreachable"
	Message string   // one-liner explanation
	Hints   []string // actionable recovery suggestions
	Raw     string   // original error text (for debug)
}

// Render formats the FriendlyError for display.
func (fe FriendlyError) Render() string {
	var sb strings.Builder
	sb.WriteString(fe.Title)
	if fe.Message != "" {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Message)
	}
	if len(fe.Hints) > 0 {
		sb.WriteString("\n  Suggestions:")
		for _, h := range fe.Hints {
			sb.WriteString(fmt.Sprintf("\n    %s %s", theme.SymbolBullet, h))
		}
	}
	return sb.String()
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	// Domain sentinel errors (checked first so errors.Is works through wrapping).
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrNoBackend) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "No Server Configured",
				Message: "Reelist doesn't know where your server is yet.",
				Hints:   []string{"Run 'reelist discover' to find servers on your network", "Set REELIST_BACKEND_URL or backend.url in reelist.yaml"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrBackendUnreachable) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Server Unreachable",
				Message: "Could not reach the Reelist server.",
				Hints:   []string{"Check that the server is running", "Verify the URL with 'reelist doctor'", "The connection is retried automatically"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrProviderUnavailable) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Trakt Not Responding",
				Message: "The server could not reach Trakt to broker the authorization.",
				Hints:   []string{"Trakt may be down; wait a minute and retry", "Check the server's network access"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrExchangeFailed) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Authorization Not Accepted",
				Message: domain.RejectionReason(err),
				Hints:   []string{"Authorization codes are single-use and expire quickly", "Press Enter to restart the authorization step"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrSubmissionRejected) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Rejected by Server",
				Message: domain.RejectionReason(err),
				Hints:   []string{"Correct the value and submit again"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrAuthInvalid) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Not Authorized",
				Message: "The server rejected the client's credentials.",
				Hints:   []string{"Re-run the setup to refresh the authorization"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrRateLimit) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Rate Limited",
				Message: "The server asked the client to slow down.",
				Hints:   []string{"Wait a moment; polling resumes automatically"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrTimeout) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Request Timed Out",
				Message: "The server took too long to answer.",
				Hints:   []string{"Check the network between this machine and the server", "Increase backend.timeout in reelist.yaml"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrSessionStore) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Session File Problem",
				Message: "The local session file could not be read or written.",
				Hints:   []string{"Check permissions under ~/.reelist", "Delete the session file to start fresh"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, domain.ErrDiscovery) },
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Discovery Failed",
				Message: "The mDNS scan could not run.",
				Hints:   []string{"Some networks block multicast; enter the server URL manually"},
				Raw:     err.Error(),
			}
		},
	},

	// Network patterns (string matching for errors from outside the domain).
	{
		match:   containsAny("connection refused", "dial tcp", "no such host"),
		produce: constantError("Connection Failed", "Could not reach the server.", []string{"Check that the server is running", "Verify backend.url in reelist.yaml"}),
	},
	{
		match:   containsAny("deadline exceeded", "timeout", "context deadline"),
		produce: constantError("Request Timed Out", "The request took too long to complete.", []string{"Check your network connection", "Increase backend.timeout in reelist.yaml"}),
	},
	{
		match:   containsAny("address already in use"),
		produce: constantError("Port In Use", "The callback listener port is taken by another process.", []string{"Change callback.port in reelist.yaml", "Use the paste fallback to finish authorization"}),
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}

	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}

	// Fallback for unrecognized errors.
	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Run 'reelist doctor' to check the environment"},
		Raw:     err.Error(),
	}
}

// containsAny returns a match func that checks if the error string contains
// any of the given substrings (case-insensitive).
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

// constantError returns a produce func that always returns the same FriendlyError.
func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{
			Title:   title,
			Message: message,
			Hints:   hints,
			Raw:     err.Error(),
		}
	}
}
