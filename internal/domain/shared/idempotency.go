package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys of work already done, such as a customer
// notice for one fulfillment order version
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It reports true only for the first
	// caller; later callers within the TTL get false.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}

// IdempotencyConfig controls deduplication of event handling
type IdempotencyConfig struct {
	// TTL bounds how long a key suppresses repeats
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
