package logger

import "context"

// contextKey keeps the request-ID key private to this package.
type contextKey struct{}

var requestIDKey = contextKey{}

// WithRequestID stores a request ID for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the stored request ID, or "" when none is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
