package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache implements cache.Cache on top of a redis client. Expiry is
// enforced by redis itself.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := cache.Encode(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (cache.Value, error) {
	val, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return cache.Value{}, cache.ErrMiss
	case err != nil:
		return cache.Value{}, unavailable(err)
	case val == "":
		return cache.Value{}, cache.ErrMiss
	}
	return cache.Decode(val), nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close releases the pool. No reconnects happen afterwards.
func (r *RedisCache) Close() error {
	err := r.client.Close()
	r.log.Warn("Redis connection ended!", zap.String("type", "REDIS_CONN_ENDED"))
	return err
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
}
