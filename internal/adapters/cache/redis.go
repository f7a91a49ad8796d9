package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twistlabs/influencer-staking/internal/domain"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisPoolCache is the read-through cache for pool snapshots. Writers
// invalidate synchronously after every mutation, so a hit is never staler than
// the last committed write plus the TTL.
type RedisPoolCache struct {
	client *redis.Client
}

func NewRedisPoolCache(client *redis.Client) *RedisPoolCache {
	return &RedisPoolCache{client: client}
}

func poolKey(poolID string) string {
	return "staking:pool:" + poolID
}

func (c *RedisPoolCache) Get(ctx context.Context, poolID string) (domain.StakingPool, bool, error) {
	raw, err := c.client.Get(ctx, poolKey(poolID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.StakingPool{}, false, nil
		}
		return domain.StakingPool{}, false, err
	}
	var pool domain.StakingPool
	if err := json.Unmarshal(raw, &pool); err != nil {
		// Treat a corrupt entry as a miss and drop it.
		_ = c.client.Del(ctx, poolKey(poolID)).Err()
		return domain.StakingPool{}, false, nil
	}
	return pool, true, nil
}

func (c *RedisPoolCache) Set(ctx context.Context, pool domain.StakingPool, ttl time.Duration) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, poolKey(pool.PoolID), raw, ttl).Err()
}

func (c *RedisPoolCache) Invalidate(ctx context.Context, poolID string) error {
	return c.client.Del(ctx, poolKey(poolID)).Err()
}
