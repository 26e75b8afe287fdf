// Package dedup remembers which gateway transactions already produced a sale.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a claimed transaction id is remembered.
const DefaultTTL = 72 * time.Hour

const keyPrefix = "wompi:sale:"

// Guard claims a key the first time it is seen.
type Guard interface {
	// Claim reports true when key was not claimed before.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a later delivery can claim it again.
	Release(ctx context.Context, key string) error
}

// Noop lets every claim through.
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string) error { return nil }

// RedisGuard stores claims as expiring keys in Redis.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard wraps an existing client.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Open connects to addr and checks the connection with a ping.
func Open(ctx context.Context, addr, password string, ttl time.Duration) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dedup: ping %s: %w", addr, err)
	}
	return NewRedisGuard(client, ttl), nil
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: claim %s: %w", key, err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("dedup: release %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
