package client

import (
	"context"
	"sync"
	"time"
)

// Token is a cached OAuth bearer token for one shop.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the token's validity window has passed.
func (t *Token) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}

// TokenCache stores per-shop bearer tokens. Concurrent refreshes for the
// same shop may race; the later write wins with an equally valid token, so
// no locking beyond the backing store's own is needed.
type TokenCache interface {
	Get(ctx context.Context, shopID string) (*Token, error)
	Set(ctx context.Context, shopID string, token *Token) error
	Clear(ctx context.Context, shopID string) error
}

// MemoryTokenCache is the default in-process cache. Entries are small and
// bounded by the number of active shops, so there is no eviction beyond
// Clear.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: map[string]*Token{}}
}

func (c *MemoryTokenCache) Get(ctx context.Context, shopID string) (*Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[shopID], nil
}

func (c *MemoryTokenCache) Set(ctx context.Context, shopID string, token *Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[shopID] = token
	return nil
}

func (c *MemoryTokenCache) Clear(ctx context.Context, shopID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, shopID)
	return nil
}
