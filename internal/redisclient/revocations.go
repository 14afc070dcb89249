package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "portal:revoked:"

// Revocations stores logged-out session ids with a TTL equal to the token's remaining life.
type Revocations struct {
	c   *Client
	now func() time.Time
}

func NewRevocations(c *Client) *Revocations {
	return &Revocations{c: c, now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.c.redisdb.Set(ctx, revokedPrefix+sessionID, 1, ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := r.c.redisdb.Get(ctx, revokedPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
