package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event IDs were already handled.
type IdempotencyStore interface {
	// MarkProcessed records the event ID for the given TTL. True means
	// the caller claimed it first; false means it was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the event ID is currently recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig tunes duplicate suppression.
type IdempotencyConfig struct {
	// TTL bounds how long an event ID is remembered; once it lapses the
	// same ID can be processed again.
	TTL time.Duration

	// Enabled turns the check off entirely when false.
	Enabled bool
}

// DefaultIdempotencyConfig remembers event IDs for 24 hours.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
