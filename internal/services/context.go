package services

import "context"

type contextKey string

const (
	batchIDKey   contextKey = "batch_id"
	flatKey      contextKey = "flat"
	requestIDKey contextKey = "request_id"
)

// WithBatchID annotates context with the identifier of the running mailing batch.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the batch identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFlat annotates context with the normalized flat key currently being processed.
func WithFlat(ctx context.Context, flat string) context.Context {
	if flat == "" {
		return ctx
	}
	return context.WithValue(ctx, flatKey, flat)
}

// FlatFromContext returns the flat key if present.
func FlatFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(flatKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
