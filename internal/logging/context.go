package logging

import (
	"context"
	"log/slog"

	"billmailer/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID is the standardized structured logging key for mailing batch identifiers.
	FieldBatchID = "batch_id"
	// FieldFlat is the standardized structured logging key for normalized flat keys.
	FieldFlat = "flat"
	// FieldEmail is the standardized structured logging key for recipient addresses.
	FieldEmail = "email"
	// FieldOutcome is the standardized structured logging key for per-entry send outcomes.
	FieldOutcome = "outcome"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.BatchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if flat, ok := services.FlatFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFlat, flat))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
