package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github-trend-radar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 为每个测试在内存里建一个独立的 SQLite 库
func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	store, err := NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	return store
}

func TestKVStore_GetMiss(t *testing.T) {
	store := newTestStore(t)

	value, found, err := store.Get(context.Background(), "trendradar:cache:3d")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestKVStore_PutThenGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payload := `{"data":[{"name":"gohugoio/hugo"}],"timestamp":"2026-08-24T08:00:00Z"}`
	require.NoError(t, store.Put(ctx, CacheKey(domain.TimeFrame7Day), payload))

	value, found, err := store.Get(ctx, CacheKey(domain.TimeFrame7Day))

	assert.NoError(t, err)
	assert.True(t, found)
	// 往返必须逐字节一致
	assert.Equal(t, payload, value)
}

func TestKVStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, FavoritesKey(), `[{"name":"a/b"}]`))
	require.NoError(t, store.Put(ctx, FavoritesKey(), `[]`))

	value, found, err := store.Get(ctx, FavoritesKey())

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)
}

func TestKVStore_KeysAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, CacheKey(domain.TimeFrame3Day), "three"))
	require.NoError(t, store.Put(ctx, CacheKey(domain.TimeFrame7Day), "seven"))

	v3, _, _ := store.Get(ctx, CacheKey(domain.TimeFrame3Day))
	v7, _, _ := store.Get(ctx, CacheKey(domain.TimeFrame7Day))

	assert.Equal(t, "three", v3)
	assert.Equal(t, "seven", v7)
}

func TestNamespacedKeys(t *testing.T) {
	assert.Equal(t, "trendradar:cache:3d", CacheKey(domain.TimeFrame3Day))
	assert.Equal(t, "trendradar:cache:14d", CacheKey(domain.TimeFrame14Day))
	assert.Equal(t, "trendradar:favorites", FavoritesKey())
	assert.Equal(t, "trendradar:key:gemini", CredentialKey("gemini"))
}
