package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
// KEYS[1] = lock key
// ARGV[1] = token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease lock shared by every instance that talks to the same redis.
type RedisLocker struct {
	client    goredis.Cmdable
	keyPrefix string
	ttl       time.Duration
	retry     time.Duration
	onLost    func(key string)
}

// RedisOption configures RedisLocker.
type RedisOption func(*RedisLocker)

// WithKeyPrefix sets the Redis key prefix (default "chat:lock:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.keyPrefix = prefix }
}

// WithRetryInterval sets how often a waiting Acquire polls (default 25ms).
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.retry = d }
}

// WithLostHandler is called when a release finds the lease already gone.
func WithLostHandler(fn func(key string)) RedisOption {
	return func(l *RedisLocker) { l.onLost = fn }
}

// NewRedis creates a lease lock. ttl must outlast the longest turn, including the
// upstream timeout.
func NewRedis(client goredis.Cmdable, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:    client,
		keyPrefix: "chat:lock:",
		ttl:       ttl,
		retry:     25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// The turn may have been cancelled; the release must still reach redis.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int64()
		if (err != nil || n == 0) && l.onLost != nil {
			l.onLost(key)
		}
	}, nil
}
