package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed settlement IDs so that re-reported
// settlements never double-count billing volume
type IdempotencyStore interface {
	// MarkProcessed marks an ID as processed with a TTL. Returns true if the
	// ID was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether an ID has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Close releases underlying resources
	Close() error
}
