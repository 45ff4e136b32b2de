package logging

import "context"

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores a request identifier in the context for downstream
// log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request identifier stored in the context, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
