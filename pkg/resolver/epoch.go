package resolver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// EpochSource reports when a firm's role assignments last changed, as a
// unix timestamp. Membership-mutation workflows bump the epoch; the claims
// adapter compares credential issuance against it.
type EpochSource interface {
	RoleChangedAt(ctx context.Context, firmID string) (int64, error)
}

const epochKeyPrefix = "caseward:role_epoch:"

// RedisEpochSource stores role-changed epochs in Redis.
type RedisEpochSource struct {
	client *redis.Client
}

// NewRedisEpochSource creates an epoch source over a Redis client.
func NewRedisEpochSource(client *redis.Client) *RedisEpochSource {
	return &RedisEpochSource{client: client}
}

// RoleChangedAt returns the firm's role-changed epoch. A firm with no
// recorded change has epoch 0, which every credential is newer than.
func (s *RedisEpochSource) RoleChangedAt(ctx context.Context, firmID string) (int64, error) {
	val, err := s.client.Get(ctx, epochKeyPrefix+firmID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("epoch lookup: %w", err)
	}
	epoch, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("epoch parse: %w", err)
	}
	return epoch, nil
}

// BumpRoleChanged records that the firm's role assignments changed now.
// Called by membership-mutation workflows (role change, suspension,
// departure) to invalidate outstanding credentials' claims.
func (s *RedisEpochSource) BumpRoleChanged(ctx context.Context, firmID string) error {
	now := time.Now().Unix()
	if err := s.client.Set(ctx, epochKeyPrefix+firmID, strconv.FormatInt(now, 10), 0).Err(); err != nil {
		return fmt.Errorf("epoch bump: %w", err)
	}
	return nil
}

// CachedEpochSource wraps an EpochSource with a short-TTL in-process LRU.
// The TTL adds to the staleness window the fast path already accepts, so
// keep it small relative to credential lifetime.
type CachedEpochSource struct {
	source EpochSource
	cache  *expirable.LRU[string, int64]
}

// NewCachedEpochSource creates a caching wrapper. size bounds the number
// of firms cached; ttl bounds the added staleness.
func NewCachedEpochSource(source EpochSource, size int, ttl time.Duration) *CachedEpochSource {
	return &CachedEpochSource{
		source: source,
		cache:  expirable.NewLRU[string, int64](size, nil, ttl),
	}
}

// RoleChangedAt returns the cached epoch, consulting the underlying
// source on miss. Errors are never cached.
func (c *CachedEpochSource) RoleChangedAt(ctx context.Context, firmID string) (int64, error) {
	if epoch, ok := c.cache.Get(firmID); ok {
		return epoch, nil
	}
	epoch, err := c.source.RoleChangedAt(ctx, firmID)
	if err != nil {
		return 0, err
	}
	c.cache.Add(firmID, epoch)
	return epoch, nil
}
