package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifelink/coordination-api/internal/core/ports"
)

const defaultClaimTTL = 10 * time.Second

// InterestClaims serialises concurrent interest attempts for the same
// (donor, request) pair. A claim expires on its own if the holder dies.
// Key format: interest:claim:<donor_id>:<request_id>
type InterestClaims struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.InterestClaims = (*InterestClaims)(nil)

// NewInterestClaims wraps client. A non-positive ttl falls back to defaultClaimTTL.
func NewInterestClaims(client *redis.Client, ttl time.Duration) *InterestClaims {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &InterestClaims{client: client, ttl: ttl}
}

// Claim reports whether the caller now holds the pair. False means another
// attempt is in flight.
func (c *InterestClaims) Claim(ctx context.Context, donorID, requestID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(donorID, requestID), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("interest claim: %w", err)
	}
	return ok, nil
}

func (c *InterestClaims) Release(ctx context.Context, donorID, requestID string) error {
	if err := c.client.Del(ctx, c.key(donorID, requestID)).Err(); err != nil {
		return fmt.Errorf("interest release: %w", err)
	}
	return nil
}

func (c *InterestClaims) key(donorID, requestID string) string {
	return fmt.Sprintf("interest:claim:%s:%s", donorID, requestID)
}
