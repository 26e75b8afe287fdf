package rollbase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultTokenTTL is how long a session id is trusted after login.
const DefaultTokenTTL = 30 * time.Minute

// TokenProvider obtains a fresh session token from the record store.
type TokenProvider interface {
	Login(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to TokenProvider.
type ProviderFunc func(ctx context.Context) (string, error)

// Login calls f.
func (f ProviderFunc) Login(ctx context.Context) (string, error) { return f(ctx) }

// TokenCache keeps the current session token and refreshes it on expiry.
//
// Two callers that see an expired token at the same time will both log in;
// the later result simply overwrites the earlier one. The mutex only protects
// the cached fields and is never held across the provider call.
type TokenCache struct {
	provider TokenProvider
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenCache creates a cache backed by provider. A non-positive ttl falls
// back to DefaultTokenTTL.
func NewTokenCache(provider TokenProvider, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *TokenCache) WithClock(now func() time.Time) *TokenCache {
	c.now = now
	return c
}

// Token returns the cached token while it is still valid, logging in again
// otherwise.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.expiry
	c.mu.Unlock()

	now := c.now()
	if token != "" && now.Before(expiry) {
		return token, nil
	}

	fresh, err := c.provider.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	fresh = strings.TrimSpace(fresh)
	if fresh == "" {
		return "", ErrAuthFailure
	}

	c.mu.Lock()
	c.token = fresh
	c.expiry = now.Add(c.ttl)
	c.mu.Unlock()
	return fresh, nil
}

// Invalidate forgets the cached token so the next call logs in again.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}
