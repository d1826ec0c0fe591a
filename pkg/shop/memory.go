package shop

import (
	"context"
	"sync"
)

// MemoryRepository keeps shops in a mutex-guarded map. Entries are bounded
// by the number of registered shops, so there is no eviction.
type MemoryRepository struct {
	mu    sync.RWMutex
	shops map[string]*SimpleShop
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{shops: map[string]*SimpleShop{}}
}

func (r *MemoryRepository) CreateShop(ctx context.Context, id, url, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[id] = NewSimpleShop(id, url, secret)
	return nil
}

func (r *MemoryRepository) GetShopByID(ctx context.Context, id string) (Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepository) UpdateShop(ctx context.Context, s Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := &SimpleShop{
		ID:          s.ShopID(),
		URL:         s.ShopURL(),
		Secret:      s.ShopSecret(),
		OAuthID:     s.ClientID(),
		OAuthSecret: s.ClientSecret(),
		IsActive:    s.Active(),
	}
	r.shops[stored.ID] = stored
	return nil
}

func (r *MemoryRepository) DeleteShop(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.shops, id)
	return nil
}
