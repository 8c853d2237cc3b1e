package catalog

import (
	"context"
	"errors"

	"github.com/easymeds/platform/internal/domain"
)

var ErrItemNotFound = errors.New("catalog item not found")

// Repository looks up what the storefront can sell. Cart mutations validate
// item IDs against it, so no caller-supplied price ever reaches the cart.
type Repository interface {
	ListItems(ctx context.Context) ([]*domain.CatalogItem, error)
	GetItem(ctx context.Context, id string) (*domain.CatalogItem, error)
	Close() error
}
