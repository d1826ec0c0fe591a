package shop

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no shop exists for an id.
var ErrNotFound = errors.New("shop not found")

// Repository is the storage contract for shops. Implement this to persist
// shops in your own database; MemoryRepository covers tests and dev setups.
type Repository interface {
	CreateShop(ctx context.Context, id, url, secret string) error
	// GetShopByID returns ErrNotFound when the shop does not exist.
	GetShopByID(ctx context.Context, id string) (Shop, error)
	UpdateShop(ctx context.Context, s Shop) error
	DeleteShop(ctx context.Context, id string) error
}
