package bundlecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, Key("en", "web"), "payload"))

	val, ok := c.Get(ctx, Key("en", "web"))
	require.True(t, ok)
	require.Equal(t, "payload", val)

	_, ok = c.Get(ctx, Key("de", "web"))
	require.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "en:web", "payload"))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, "en:web")
	require.False(t, ok)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, Key("en", "web"), "a"))
	require.NoError(t, c.Set(ctx, Key("en", "mobile"), "b"))
	require.NoError(t, c.Set(ctx, Key("de", "web"), "c"))

	require.NoError(t, c.DeletePrefix(ctx, LocalePrefix("en")))

	_, ok := c.Get(ctx, Key("en", "web"))
	require.False(t, ok)
	_, ok = c.Get(ctx, Key("en", "mobile"))
	require.False(t, ok)
	_, ok = c.Get(ctx, Key("de", "web"))
	require.True(t, ok)
}

func TestMemoryCache_DeletePrefix_Empty(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "en:web", "a"))
	require.NoError(t, c.Set(ctx, "de:web", "b"))

	// Empty prefix drops everything.
	require.NoError(t, c.DeletePrefix(ctx, ""))

	_, ok := c.Get(ctx, "en:web")
	require.False(t, ok)
	_, ok = c.Get(ctx, "de:web")
	require.False(t, ok)
}
