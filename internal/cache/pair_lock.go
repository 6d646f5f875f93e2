package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when the lock is still held by someone else
// after the retry budget is spent.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only if it still holds our token, so a lock that
// expired and was taken over is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PairLocker is a Redis mutex keyed by an unordered Company–Agent pair.
// Different pairs use different keys and never contend.
type PairLocker struct {
	client   *redis.Client
	ttl      time.Duration
	attempts uint64
	interval time.Duration
}

// NewPairLocker creates a locker. ttl bounds how long a crashed holder can block
// the pair; attempts bounds how many times Lock retries before giving up.
func NewPairLocker(c *RedisCache, ttl time.Duration, attempts uint64) *PairLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if attempts == 0 {
		attempts = 20
	}
	return &PairLocker{client: c.Client, ttl: ttl, attempts: attempts, interval: 5 * time.Millisecond}
}

// KeyForPair generates the Redis key guarding a pair.
func KeyForPair(companyID, agentID uint64) string {
	return fmt.Sprintf("lock:pair:%d:%d", companyID, agentID)
}

// Lock acquires the pair lock, retrying with exponential backoff.
// The returned unlock func is safe to call once; it uses a fresh context so a
// cancelled request still releases its lock.
func (l *PairLocker) Lock(ctx context.Context, companyID, agentID uint64) (func(), error) {
	key := KeyForPair(companyID, agentID)
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.interval
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = l.ttl

	op := func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrLockNotAcquired
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, l.attempts), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pair %d:%d: %w", companyID, agentID, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
