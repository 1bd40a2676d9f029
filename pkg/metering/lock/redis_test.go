//go:build integration

package lock

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockerExcludes(t *testing.T) {
	client := newTestClient(t)
	l := NewRedis(client, time.Second, WithKeyPrefix("test:"+t.Name()+":"))

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	again, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerReportsLostLease(t *testing.T) {
	client := newTestClient(t)
	var lost string
	l := NewRedis(client, 50*time.Millisecond,
		WithKeyPrefix("test:"+t.Name()+":"),
		WithLostHandler(func(key string) { lost = key }),
	)

	release, err := l.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	release()

	assert.Equal(t, "s1", lost)
}
