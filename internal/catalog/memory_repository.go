package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/easymeds/platform/internal/domain"
)

// MemoryRepository is a map-backed catalog used in tests and as a fallback
// when no database path is configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.CatalogItem
}

func NewMemoryRepository(items ...*domain.CatalogItem) *MemoryRepository {
	r := &MemoryRepository{items: make(map[string]*domain.CatalogItem)}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *MemoryRepository) ListItems(ctx context.Context) ([]*domain.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.CatalogItem, 0, len(r.items))
	for _, item := range r.items {
		cp := *item
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *MemoryRepository) GetItem(ctx context.Context, id string) (*domain.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryRepository) Close() error { return nil }
