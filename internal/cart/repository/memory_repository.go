package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/easymeds/platform/internal/domain"
)

// MemoryRepository stores cart snapshots as serialized JSON blobs keyed by
// session ID, mirroring the wire layout of the durable store. Used when no
// Mongo URI is configured and throughout the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		blobs: make(map[string][]byte),
	}
}

func (r *MemoryRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.RLock()
	blob, ok := r.blobs[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrCartNotFound
	}

	var cart domain.Cart
	if err := json.Unmarshal(blob, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	return &cart, nil
}

func (r *MemoryRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	blob, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	r.mu.Lock()
	r.blobs[cart.SessionID] = blob
	r.mu.Unlock()

	return nil
}

func (r *MemoryRepository) DeleteCart(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blobs[sessionID]; !ok {
		return ErrCartNotFound
	}
	delete(r.blobs, sessionID)

	return nil
}

// PutBlob installs a raw snapshot blob, bypassing serialization.
// Tests use it to simulate corrupt stored state.
func (r *MemoryRepository) PutBlob(sessionID string, blob []byte) {
	r.mu.Lock()
	r.blobs[sessionID] = blob
	r.mu.Unlock()
}

// HasBlob reports whether a snapshot exists for the session.
func (r *MemoryRepository) HasBlob(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blobs[sessionID]
	return ok
}
