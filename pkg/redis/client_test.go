package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := Wrap(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, server := newTestClient(t)

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, allowed, "hit %d", i+1)
		require.EqualValues(t, i+1, count)
	}

	key := client.RateLimitKey("login:ip:1.2.3.4")
	require.Equal(t, time.Minute, server.TTL(key))

	server.FastForward(time.Minute + time.Second)
	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 1, count)
}

func TestFixedWindowKeepsOriginalExpiry(t *testing.T) {
	ctx := context.Background()
	client, server := newTestClient(t)

	_, _, err := client.FixedWindowAllow(ctx, "register:email:abc", 5, time.Minute)
	require.NoError(t, err)
	server.FastForward(40 * time.Second)
	_, _, err = client.FixedWindowAllow(ctx, "register:email:abc", 5, time.Minute)
	require.NoError(t, err)

	require.Equal(t, 20*time.Second, server.TTL(client.RateLimitKey("register:email:abc")))
}

func TestSetNXGetDel(t *testing.T) {
	ctx := context.Background()
	client, server := newTestClient(t)
	key := client.IdempotencyKey("stripe-webhook", "evt_123")

	ok, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, key, "2", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Hour, server.TTL(key))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "1", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	require.NoError(t, client.Set(ctx, "k", "pending", time.Minute))
	require.NoError(t, client.Set(ctx, "k", "complete", time.Hour))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "complete", got)
}

func TestUninitializedClient(t *testing.T) {
	var client Client
	require.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	require.ErrorIs(t, err, errNotInitialized)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "gs:idempotency:checkout:abc", client.IdempotencyKey("checkout", "abc"))
	require.Equal(t, "gs:rate_limit:login:ip:1.2.3.4", client.RateLimitKey("login:ip:1.2.3.4"))
	require.Equal(t, "gs:lock:cron-worker:prod", client.LockKey("cron-worker:prod"))
	require.Equal(t, "gs:session:access:jti-1", client.AccessSessionKey("jti-1"))
	require.Equal(t, "gs:idempotency:checkout", client.IdempotencyKey("checkout", " "))
}

func TestNewPingsServer(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Address: server.Addr(), PoolSize: 2}, nil)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	addr := server.Addr()
	server.Close()
	_, err = New(context.Background(), config.RedisConfig{Address: addr, DialTimeout: 200 * time.Millisecond}, nil)
	require.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache:6380/3", DB: 7, PoolSize: 20})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, 20, opts.PoolSize)

	_, err = optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)
}
