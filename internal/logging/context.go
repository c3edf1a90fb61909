package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldReleaseKey identifies the release (normalized identity) a line concerns.
	FieldReleaseKey = "release_key"
	// FieldInvocationID correlates every line emitted by a single run.
	FieldInvocationID = "invocation_id"
	// FieldState is the pipeline state the line was emitted from.
	FieldState = "state"
	// FieldHost names the file host a link belongs to.
	FieldHost = "host"
	// FieldEventType classifies a log line for filtering (e.g. "post_created").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	releaseKeyContextKey contextKey = iota
	invocationIDContextKey
)

// WithReleaseKey stores the release identity on ctx for log enrichment.
func WithReleaseKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, releaseKeyContextKey, key)
}

// WithInvocationID stores the per-run correlation identifier on ctx.
func WithInvocationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, invocationIDContextKey, id)
}

// ReleaseKeyFromContext returns the release identity stored on ctx.
func ReleaseKeyFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(releaseKeyContextKey).(string)
	return v, ok && v != ""
}

// InvocationIDFromContext returns the run identifier stored on ctx.
func InvocationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(invocationIDContextKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if key, ok := ReleaseKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldReleaseKey, key))
	}
	if id, ok := InvocationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldInvocationID, id))
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
	return logger.With(attrsToArgs(fields)...)
}
