package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)
	return NewCache(mr.Addr())
}

func TestCacheSetGet(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
	}

	err := cache.Set(ctx, "k", payload{Title: "hello"}, time.Minute)
	assert.NoError(t, err)

	var got payload
	found, err := cache.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", got.Title)
}

func TestCacheGetMiss(t *testing.T) {
	cache := setupCache(t)

	var got map[string]any
	found, err := cache.Get(context.Background(), "missing", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCacheVersionCounter(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	assert.Equal(t, uint64(0), cache.GetVersion(ctx, "user:alice:notes:version"))

	cache.IncrementVersion(ctx, "user:alice:notes:version")
	cache.IncrementVersion(ctx, "user:alice:notes:version")

	assert.Equal(t, uint64(2), cache.GetVersion(ctx, "user:alice:notes:version"))
}

func TestCacheNilSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	found, err := cache.Get(ctx, "k", nil)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.Equal(t, uint64(0), cache.GetVersion(ctx, "k"))
	cache.IncrementVersion(ctx, "k") // must not panic

	empty := &Cache{}
	found, err = empty.Get(ctx, "k", nil)
	assert.NoError(t, err)
	assert.False(t, found)
}
