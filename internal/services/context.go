package services

import "context"

type contextKey string

const (
	bookIDKey contextKey = "book_id"
	stageKey  contextKey = "stage"
)

// WithBookID annotates context with the source book identifier.
func WithBookID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, bookIDKey, id)
}

// BookIDFromContext extracts the source book identifier if present.
func BookIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(bookIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
