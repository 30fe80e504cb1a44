package ports

import "context"

// IdempotencyClaim describes who holds an Idempotency-Key. ResourceID is
// empty while the request that reserved the key is still creating.
type IdempotencyClaim struct {
	ResourceID string
}

func (c IdempotencyClaim) Pending() bool { return c.ResourceID == "" }

// IdempotencyStore makes a retried create with the same Idempotency-Key
// return the first request's resource instead of creating a duplicate. Keys
// are scoped per user. A key is reserved before the row is written, so two
// concurrent requests cannot both create.
type IdempotencyStore interface {
	// Reserve claims key. When another request already holds it, reserved
	// is false and claim describes the holder.
	Reserve(ctx context.Context, userID, scope, key string) (claim IdempotencyClaim, reserved bool, err error)
	// Complete records the resource created under a reserved key.
	Complete(ctx context.Context, userID, scope, key, resourceID string) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, userID, scope, key string) error
}
