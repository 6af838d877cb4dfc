package session

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContextKey string

const (
	SearchIDKey   ContextKey = "search_id"
	GenerationKey ContextKey = "generation"
)

// ContextLogger returns baseLogger annotated with the search id and
// generation carried by ctx.
func ContextLogger(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	logger := baseLogger

	if id := GetSearchID(ctx); id != "" {
		logger = logger.With(zap.String(string(SearchIDKey), id))
	}

	if gen, ok := ctx.Value(GenerationKey).(uint64); ok {
		logger = logger.With(zap.Uint64(string(GenerationKey), gen))
	}

	return logger
}

// WithSearch tags ctx with a fresh search id and the generation token.
func WithSearch(ctx context.Context, gen uint64) context.Context {
	ctx = context.WithValue(ctx, SearchIDKey, uuid.NewString())
	return context.WithValue(ctx, GenerationKey, gen)
}

// GetSearchID retrieves the search id from ctx.
func GetSearchID(ctx context.Context) string {
	if id, ok := ctx.Value(SearchIDKey).(string); ok {
		return id
	}
	return ""
}
