package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/ports"
)

const (
	scopeProject = "project"
	scopeTask    = "task"
)

// replayer wraps an optional IdempotencyStore. Store failures are logged and
// treated as a free key: the request proceeds as a plain create.
type replayer struct {
	store  ports.IdempotencyStore
	logger zerolog.Logger
}

// reserve reports whether another request already holds key. When held is
// false the caller owns the key and must finish with complete or release.
func (r replayer) reserve(ctx context.Context, userID, scope, key string) (claim ports.IdempotencyClaim, held bool) {
	if r.store == nil || key == "" {
		return ports.IdempotencyClaim{}, false
	}
	claim, reserved, err := r.store.Reserve(ctx, userID, scope, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("scope", scope).Msg("idempotency reserve failed, processing anyway")
		return ports.IdempotencyClaim{}, false
	}
	return claim, !reserved
}

func (r replayer) complete(ctx context.Context, userID, scope, key, resourceID string) {
	if r.store == nil || key == "" {
		return
	}
	if err := r.store.Complete(ctx, userID, scope, key, resourceID); err != nil {
		r.logger.Warn().Err(err).Str("scope", scope).Msg("failed to record idempotency key")
	}
}

func (r replayer) release(ctx context.Context, userID, scope, key string) {
	if r.store == nil || key == "" {
		return
	}
	if err := r.store.Release(ctx, userID, scope, key); err != nil {
		r.logger.Warn().Err(err).Str("scope", scope).Msg("failed to release idempotency key")
	}
}
