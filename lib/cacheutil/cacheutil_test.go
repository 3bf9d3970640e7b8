package cacheutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("specials", map[string]string{
		"store":    "woolworths",
		"category": "4",
		"page":     "2",
	})
	b := Key("specials", map[string]string{
		"page":     "2",
		"category": "4",
		"store":    "woolworths",
	})
	require.Equal(t, a, b)
}

func TestKeyVariesWithParams(t *testing.T) {
	a := Key("specials", map[string]string{"store": "coles"})
	b := Key("specials", map[string]string{"store": "aldi"})
	require.NotEqual(t, a, b)
}

func TestKeyPrefix(t *testing.T) {
	key := Key("stats", map[string]string{"store": "iga"})
	require.Regexp(t, `^stats:[0-9a-f]{12}$`, key)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache

	require.False(t, c.Enabled())

	c.SetJSON(ctx, "specials:abc", map[string]int{"n": 1}, TTLShort)

	var out map[string]int
	require.False(t, c.GetJSON(ctx, "specials:abc", &out))
	require.Zero(t, c.Invalidate(ctx, "specials"))
}

func TestUnreachableRedisDisablesCache(t *testing.T) {
	c := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.False(t, c.Enabled())
}
