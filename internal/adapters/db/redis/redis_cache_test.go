package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type cachedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis, *observer.ObservedLogs) {
	t.Helper()
	mr := miniredis.RunT(t)

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	client := NewClient(Options{Addr: mr.Addr()}, log)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, log), mr, logs
}

func TestRedisCache_StructuredRoundTrip(t *testing.T) {
	c, mr, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user:username:alice", cachedUser{ID: 1, Username: "alice"}, 0))

	raw, err := mr.Get("user:username:alice")
	require.NoError(t, err)
	require.Equal(t, `j:{"id":1,"username":"alice"}`, raw)

	v, err := c.Get(ctx, "user:username:alice")
	require.NoError(t, err)
	var got cachedUser
	require.NoError(t, v.Decode(&got))
	require.Equal(t, cachedUser{ID: 1, Username: "alice"}, got)
}

func TestRedisCache_RawStringRoundTrip(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "greeting", "hello", 0))
	v, err := c.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, cache.KindRaw, v.Kind())
	require.Equal(t, "hello", v.String())
}

func TestRedisCache_TTLExpires(t *testing.T) {
	c, mr, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 300*time.Second))
	require.Equal(t, 300*time.Second, mr.TTL("k"))

	mr.FastForward(301 * time.Second)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisCache_NoTTLPersists(t *testing.T) {
	c, mr, _ := newCache(t)
	require.NoError(t, c.Set(context.Background(), "k", "v", 0))
	require.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestRedisCache_LegacyUntaggedValue(t *testing.T) {
	c, mr, _ := newCache(t)
	require.NoError(t, mr.Set("user:username:bob", `{"id":2,"username":"bob"}`))
	require.NoError(t, mr.Set("plain", "text"))

	v, err := c.Get(context.Background(), "user:username:bob")
	require.NoError(t, err)
	var got cachedUser
	require.NoError(t, v.Decode(&got))
	require.Equal(t, "bob", got.Username)

	p, err := c.Get(context.Background(), "plain")
	require.NoError(t, err)
	require.Equal(t, "text", p.String())
}

func TestRedisCache_Delete(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	n, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = c.Delete(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestRedisCache_MissIsNotUnavailable(t *testing.T) {
	c, _, _ := newCache(t)
	_, err := c.Get(context.Background(), "absent")
	require.ErrorIs(t, err, cache.ErrMiss)
	require.NotErrorIs(t, err, cache.ErrUnavailable)
}

func TestRedisCache_ServerDownIsUnavailable(t *testing.T) {
	c, mr, logs := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	mr.Close()

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrUnavailable)
	require.NotErrorIs(t, err, cache.ErrMiss)

	require.ErrorIs(t, c.Set(ctx, "k", "v", time.Minute), cache.ErrUnavailable)
	require.ErrorIs(t, c.Ping(ctx), cache.ErrUnavailable)
	require.NotZero(t, logs.FilterField(zap.String("type", "REDIS_ERROR")).Len())
}

func TestRedisCache_LogsLifecycle(t *testing.T) {
	c, _, logs := newCache(t)
	require.NoError(t, c.Ping(context.Background()))

	require.Equal(t, 1, logs.FilterField(zap.String("type", "REDIS_CONNECTING")).Len())
	require.Equal(t, 1, logs.FilterField(zap.String("type", "REDIS_CONNECTED")).Len())

	require.NoError(t, c.Close())
	require.Equal(t, 1, logs.FilterField(zap.String("type", "REDIS_CONN_ENDED")).Len())
	require.Equal(t, 1, logs.FilterField(zap.String("type", "REDIS_DISCONNECTED")).Len())
}
