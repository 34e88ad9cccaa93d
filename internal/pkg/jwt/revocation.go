package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedJTIPrefix = "revoked_jti:"

// Revocation tracks access tokens revoked before their natural expiry.
type Revocation interface {
	// Revoke marks jti revoked until the token would have expired.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked reports whether jti is revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocation stores revoked token IDs in Redis with a TTL equal to the
// token's remaining lifetime.
type RedisRevocation struct {
	client redis.Cmdable
	clock  clocker
}

// NewRedisRevocation creates a Redis-backed revocation store.
func NewRedisRevocation(client redis.Cmdable, clock clocker) *RedisRevocation {
	return &RedisRevocation{client: client, clock: clock}
}

// Revoke marks jti revoked. Tokens that already expired are ignored.
func (r *RedisRevocation) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.clock.Now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, revokedJTIPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke jti %q: %w", jti, err)
	}

	return nil
}

// IsRevoked fails closed: a Redis error reports the token as revoked.
func (r *RedisRevocation) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedJTIPrefix+jti).Result()
	if err != nil {
		return true, fmt.Errorf("check revocation %q: %w", jti, err)
	}

	return n > 0, nil
}
