package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "mdviewer:"), server
}

func TestRedisMissingKeyIsAbsent(t *testing.T) {
	store, _ := newTestRedis(t)

	value, ok, err := store.GetItem(context.Background(), "md-viewer-documents")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisPrefixedSetGetRemove(t *testing.T) {
	store, server := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "theme", "light"))
	assert.True(t, server.Exists("mdviewer:theme"))
	assert.False(t, server.Exists("theme"))
	raw, err := server.Get("mdviewer:theme")
	require.NoError(t, err)
	assert.Equal(t, "light", raw)
	assert.Zero(t, server.TTL("mdviewer:theme"))

	value, ok, err := store.GetItem(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)

	require.NoError(t, store.RemoveItem(ctx, "theme"))
	assert.False(t, server.Exists("mdviewer:theme"))
	_, ok, err = store.GetItem(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, store.RemoveItem(ctx, "theme"))
}

func TestRedisClosedClientIsUnavailable(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, store.Client.Close())

	_, _, err := store.GetItem(ctx, "theme")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, store.SetItem(ctx, "theme", "dark"), ErrUnavailable)
	assert.ErrorIs(t, store.RemoveItem(ctx, "theme"), ErrUnavailable)
}
