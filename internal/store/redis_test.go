package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/portal-compras-gateway/internal/logging"
)

func newRedisBackend(t *testing.T, ttl time.Duration) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBackend(rdb, "", ttl), mr
}

func TestRedisBackend_OneHashPerPartition(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t, time.Hour)

	require.NoError(t, b.Set(ctx, "p1", KeyUser, []byte(`{"logged":true}`)))
	require.NoError(t, b.Set(ctx, "p1", KeyHeadOffice, []byte(`{"id":1}`)))

	require.True(t, mr.Exists("portal:storage:p1"))
	require.Equal(t, time.Hour, mr.TTL("portal:storage:p1"))
	require.Equal(t, `{"id":1}`, mr.HGet("portal:storage:p1", KeyHeadOffice))

	v, ok, err := b.Get(ctx, "p1", KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"logged":true}`, string(v))

	_, ok, err = b.Get(ctx, "p2", KeyUser)
	require.NoError(t, err)
	require.False(t, ok)

	keys, err := b.Keys(ctx, "p1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{KeyUser, KeyHeadOffice}, keys)
}

func TestRedisBackend_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t, time.Hour)
	s := New(b, "p1", logging.Discard())
	other := New(b, "p2", logging.Discard())

	s.SetItem(ctx, KeyUser, map[string]any{"logged": true})
	s.SetItem(ctx, KeyApprovalsFilters, map[string]any{"selectedTab": "Compras"})
	mr.HSet("portal:storage:p1", "third-party-widget", "1")
	other.SetItem(ctx, KeyUser, map[string]any{"logged": true})

	s.RemoveItem(ctx, KeyApprovalsFilters)
	require.ElementsMatch(t, []string{KeyUser, "third-party-widget"}, s.Keys(ctx))

	s.Clear(ctx)
	require.False(t, mr.Exists("portal:storage:p1"))
	require.Empty(t, s.Keys(ctx))
	require.Equal(t, []string{KeyUser}, other.Keys(ctx))
}

func TestRedisBackend_PartitionExpires(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t, time.Minute)
	s := New(b, "p1", logging.Discard())
	s.SetItem(ctx, KeyUser, map[string]any{"logged": true})

	mr.FastForward(2 * time.Minute)

	var out map[string]any
	require.False(t, s.GetItem(ctx, KeyUser, &out))
}

func TestRedisBackend_UnreachableServerIsSwallowed(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t, time.Minute)
	mr.Close()
	s := New(b, "p1", logging.Discard())

	require.NotPanics(t, func() { s.SetItem(ctx, KeyUser, 1) })
	require.Error(t, s.trySet(ctx, KeyUser, 1))
	var out int
	require.False(t, s.GetItem(ctx, KeyUser, &out))
}
