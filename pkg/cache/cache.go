// Package cache provides a token metadata cache for list/detail flows, with
// an in-memory TTL implementation and a Redis-backed one.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/curvelaunch/launchpad-go/pkg/api"
)

// ErrMiss is returned when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// TokenCache stores token detail records keyed by contract address.
type TokenCache interface {
	Get(ctx context.Context, address string) (*api.Token, error)
	Set(ctx context.Context, token *api.Token) error
	Delete(ctx context.Context, address string) error
	Close() error
}

type memoryEntry struct {
	token    api.Token
	expireAt time.Time
}

// MemoryCache is a process-local TokenCache with per-entry TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryCache builds a MemoryCache. A non-positive ttl defaults to one
// minute.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, address string) (*api.Token, error) {
	c.mu.RLock()
	entry, ok := c.entries[address]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expireAt) {
		return nil, ErrMiss
	}
	tok := entry.token
	return &tok, nil
}

func (c *MemoryCache) Set(_ context.Context, token *api.Token) error {
	c.mu.Lock()
	c.entries[token.Address] = memoryEntry{token: *token, expireAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, address string) error {
	c.mu.Lock()
	delete(c.entries, address)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// NopCache satisfies TokenCache and never stores anything. Used when caching
// is disabled.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*api.Token, error) { return nil, ErrMiss }
func (NopCache) Set(context.Context, *api.Token) error           { return nil }
func (NopCache) Delete(context.Context, string) error            { return nil }
func (NopCache) Close() error                                    { return nil }
