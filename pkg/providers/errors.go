package providers

import (
	"fmt"
	"time"
)

// ErrorKind classifies a provider failure. The taxonomy is closed: every
// failure an adapter can produce maps to exactly one kind.
type ErrorKind string

// Provider error kinds.
const (
	// ErrorTimeout indicates the call exceeded its deadline.
	ErrorTimeout ErrorKind = "timeout"

	// ErrorRateLimited indicates the vendor returned HTTP 429.
	ErrorRateLimited ErrorKind = "rate_limited"

	// ErrorAuthentication indicates the vendor rejected the API key (401/403).
	ErrorAuthentication ErrorKind = "authentication"

	// ErrorValidation indicates a malformed request or an invalid vendor
	// response envelope.
	ErrorValidation ErrorKind = "validation"

	// ErrorParse indicates the model output could not be extracted into a
	// normalized signal.
	ErrorParse ErrorKind = "parse"

	// ErrorTransport indicates a connection, DNS or other network failure.
	ErrorTransport ErrorKind = "transport"

	// ErrorGeneric covers any other non-2xx or unexpected condition.
	ErrorGeneric ErrorKind = "generic"
)

// Error is a classified provider failure. Adapters never panic or surface
// transport-specific errors to the orchestrator; every failure is returned
// as an *Error with a kind.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Provider is the name of the adapter that produced the error.
	Provider string

	// Message is a human-readable description.
	Message string

	// StatusCode is the vendor HTTP status code (0 if not applicable).
	StatusCode int

	// RetryAfter is the vendor-requested backoff for rate limits (0 if absent).
	RetryAfter time.Duration

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s error: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure is worth retrying against the same
// provider. Timeouts, rate limits, transport failures and 5xx responses are
// retryable; authentication, validation and parse failures are not.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrorTimeout, ErrorRateLimited, ErrorTransport:
		return true
	case ErrorGeneric:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// classifyStatus maps a non-2xx vendor status code to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return ErrorAuthentication
	case status == 429:
		return ErrorRateLimited
	default:
		return ErrorGeneric
	}
}
