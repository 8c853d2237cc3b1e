package repository

import (
	"context"
	"errors"

	"github.com/easymeds/platform/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")

	// ErrCorruptSnapshot means a stored cart blob exists but cannot be
	// decoded. Callers discard the blob and start from an empty cart.
	ErrCorruptSnapshot = errors.New("cart snapshot is corrupt")
)

// CartRepository defines the durable cart snapshot store.
// Consumers define this interface, not the storage implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}
