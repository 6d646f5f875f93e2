package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/intro-match/internal/config"
)

const (
	// countTTL bounds how long a cached match count lives. Reads do not extend it.
	countTTL = time.Hour
	// versionTTL outlives any in-flight fill by far.
	versionTTL = 24 * time.Hour
)

// RedisCache holds the match-count cache; the same client backs PairLocker.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache builds the client from config. Password and DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	return &RedisCache{Client: redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForMatchCount generates Redis key for an entity's matched-pair count
func (c *RedisCache) KeyForMatchCount(entityID uint64) string {
	return fmt.Sprintf("matches:count:%d", entityID)
}

// SetMatchCount stores the count and refreshes its TTL.
func (c *RedisCache) SetMatchCount(ctx context.Context, entityID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForMatchCount(entityID), count, countTTL).Err()
}

// GetMatchCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetMatchCount(ctx context.Context, entityID uint64) (int64, bool, error) {
	key := c.KeyForMatchCount(entityID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupt entry, treat as miss
		_ = c.Client.Del(ctx, key).Err()
		return 0, false, nil
	}
	return n, true, nil
}

func (c *RedisCache) keyForMatchCountVersion(entityID uint64) string {
	return fmt.Sprintf("matches:count:%d:version", entityID)
}

// MatchCountVersion returns the entity's invalidation counter ("" before the
// first invalidation). Read it before counting in the DB and hand it to
// FillMatchCount.
func (c *RedisCache) MatchCountVersion(ctx context.Context, entityID uint64) (string, error) {
	v, err := c.Client.Get(ctx, c.keyForMatchCountVersion(entityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// FillMatchCount caches count unless the entity's counts were invalidated after
// version was read. It reports whether the value was stored.
func (c *RedisCache) FillMatchCount(ctx context.Context, entityID uint64, version string, count int64) (bool, error) {
	vkey := c.keyForMatchCountVersion(entityID)
	stored := false
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForMatchCount(entityID), count, countTTL)
			return nil
		})
		stored = err == nil
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated between WATCH and EXEC
		return false, nil
	}
	return stored, err
}

// InvalidateMatchCounts drops the cached counts of the given entities and bumps
// their versions so fills computed before this call are discarded.
func (c *RedisCache) InvalidateMatchCounts(ctx context.Context, entityIDs ...uint64) error {
	if len(entityIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range entityIDs {
			vkey := c.keyForMatchCountVersion(id)
			pipe.Del(ctx, c.KeyForMatchCount(id))
			pipe.Incr(ctx, vkey)
			pipe.Expire(ctx, vkey, versionTTL)
		}
		return nil
	})
	return err
}
