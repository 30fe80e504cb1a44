package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskboard/tracker/internal/core/ports"
)

// DefaultIdempotencyTTL bounds how long a create can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// pendingTTL bounds a reservation whose request never completed or released
// it (a crashed server).
const pendingTTL = time.Minute

// pendingValue marks a key whose create is still running. Resource ids are
// UUIDs and never collide with it.
const pendingValue = "pending"

// kv is the slice of redis.Cmdable the store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyStore maps Idempotency-Key headers to the id of the resource the
// first request created.
// Key format: idem:<user_id>:<scope>:<key>
type IdempotencyStore struct {
	client kv
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl selects the default.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. A second attempt covers a holder that
// expired between SETNX and GET.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID, scope, key string) (ports.IdempotencyClaim, bool, error) {
	k := s.key(userID, scope, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingValue, pendingTTL).Result()
		if err != nil {
			return ports.IdempotencyClaim{}, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return ports.IdempotencyClaim{}, true, nil
		}

		v, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return ports.IdempotencyClaim{}, false, fmt.Errorf("idempotency lookup: %w", err)
		}
		if v == pendingValue {
			return ports.IdempotencyClaim{}, false, nil
		}
		return ports.IdempotencyClaim{ResourceID: v}, false, nil
	}
	return ports.IdempotencyClaim{}, false, fmt.Errorf("idempotency reserve: key %s churned", k)
}

// Complete replaces the reservation with resourceID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID, scope, key, resourceID string) error {
	if err := s.client.Set(ctx, s.key(userID, scope, key), resourceID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, userID, scope, key string) error {
	if err := s.client.Del(ctx, s.key(userID, scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID, scope, key string) string {
	return fmt.Sprintf("idem:%s:%s:%s", userID, scope, key)
}
