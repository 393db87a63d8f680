package repositories

import (
	"context"
	"time"

	"ems-backend/internal/pkg/password"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "denylist:"

// denylistRepository implements DenylistRepository on Redis. Keys carry a
// one-way hash of the jti; Redis TTL handles expiry, so a restart or a
// propagation delay only shortens the retention window, never corrupts it.
type denylistRepository struct {
	rdb *redis.Client
}

// NewDenylistRepository creates a new denylist repository
func NewDenylistRepository(rdb *redis.Client) DenylistRepository {
	return &denylistRepository{rdb: rdb}
}

func (r *denylistRepository) key(jti string) string {
	return denylistKeyPrefix + password.HashToken(jti)
}

// Add records the token identifier as revoked for the given retention window
func (r *denylistRepository) Add(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(jti), "revoked", ttl).Err()
}

// Contains reports whether the token identifier is denylisted
func (r *denylistRepository) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
