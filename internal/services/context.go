package services

import "context"

type contextKey string

const (
	creatorKey contextKey = "creator"
	runIDKey   contextKey = "run_id"
)

// WithCreator annotates context with the creator identity being processed.
func WithCreator(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, creatorKey, name)
}

// CreatorFromContext extracts the creator identity if present.
func CreatorFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(creatorKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with a run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
