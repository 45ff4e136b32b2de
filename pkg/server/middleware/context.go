// Package middleware provides the HTTP middleware chain: request IDs,
// structured request logging and panic recovery.
package middleware

type contextKey string

const (
	// RequestIDKey is the context key carrying the request identifier.
	RequestIDKey contextKey = "request_id"
)
