package dedup

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var g Guard = Noop{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		first, err := g.Claim(ctx, "tx-1")
		require.NoError(t, err)
		assert.True(t, first)
	}
	assert.NoError(t, g.Release(ctx, "tx-1"))
}

func TestNewRedisGuardDefaultTTL(t *testing.T) {
	g := NewRedisGuard(nil, 0)
	assert.Equal(t, DefaultTTL, g.ttl)
}

// exerciseGuard runs the claim/release cycle against g.
func exerciseGuard(t *testing.T, g *RedisGuard) {
	t.Helper()
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	defer g.Release(ctx, key)

	t.Run("first claim wins", func(t *testing.T) {
		first, err := g.Claim(ctx, key)
		require.NoError(t, err)
		assert.True(t, first)
	})

	t.Run("second claim is a duplicate", func(t *testing.T) {
		first, err := g.Claim(ctx, key)
		require.NoError(t, err)
		assert.False(t, first)
	})

	t.Run("release allows a new claim", func(t *testing.T) {
		require.NoError(t, g.Release(ctx, key))
		first, err := g.Claim(ctx, key)
		require.NoError(t, err)
		assert.True(t, first)
	})
}

func TestRedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)

	g, err := Open(context.Background(), mr.Addr(), "", time.Minute)
	require.NoError(t, err)
	defer g.Close()

	exerciseGuard(t, g)
}

func TestRedisGuard_ClaimExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	g, err := Open(ctx, mr.Addr(), "", time.Minute)
	require.NoError(t, err)
	defer g.Close()

	first, err := g.Claim(ctx, "tx-1")
	require.NoError(t, err)
	require.True(t, first)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"tx-1"))

	mr.FastForward(time.Minute + time.Second)

	first, err = g.Claim(ctx, "tx-1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestRedisGuard_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	g, err := Open(ctx, mr.Addr(), "", time.Minute)
	require.NoError(t, err)
	defer g.Close()
	mr.Close()

	_, err = g.Claim(ctx, "tx-1")
	assert.Error(t, err)
}

// TestRedisGuard_RealServer runs against a live Redis when one is configured.
func TestRedisGuard_RealServer(t *testing.T) {
	addr := os.Getenv("DEDUP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEDUP_TEST_REDIS_ADDR not set")
	}

	g, err := Open(context.Background(), addr, os.Getenv("DEDUP_TEST_REDIS_PASSWORD"), time.Minute)
	require.NoError(t, err)
	defer g.Close()

	exerciseGuard(t, g)
}

func TestOpenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, "127.0.0.1:1", "", time.Minute)
	assert.Error(t, err)
}
