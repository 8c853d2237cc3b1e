// Package ledger is the in-memory order store used when no database is
// configured. Its backing collections are created once per process and
// re-attached across incidental re-initialization of the wiring code, so
// orders placed before a reload do not silently vanish from the admin view.
package ledger

import (
	"context"
	"sync"

	"github.com/easymeds/platform/internal/domain"
	"github.com/easymeds/platform/internal/order"
)

// Store implements order.Repository with mutex-guarded maps plus an
// insertion-order index. Appends are serialized, so an order and its item
// snapshot always become visible together.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	index  []string // order ids in append order
}

var (
	anchorMu sync.Mutex
	anchors  = map[string]*Store{}
)

// Attach returns the store registered under the anchor key, creating and
// seeding a fresh one on first use. Re-running initialization with the same
// anchor hands back the existing instance with all accumulated writes.
func Attach(anchor string) *Store {
	anchorMu.Lock()
	defer anchorMu.Unlock()

	if s, ok := anchors[anchor]; ok {
		return s
	}

	s := New()
	seed(s)
	anchors[anchor] = s
	return s
}

// Detach removes the anchor registration. The next Attach starts from seed
// data again; used by tests to simulate a true process restart.
func Detach(anchor string) {
	anchorMu.Lock()
	delete(anchors, anchor)
	anchorMu.Unlock()
}

// New returns an empty, unanchored store.
func New() *Store {
	return &Store{
		orders: make(map[string]*domain.Order),
	}
}

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return order.ErrDuplicateOrder
	}

	s.orders[o.ID] = o.Clone()
	s.index = append(s.index, o.ID)
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *Store) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0, len(s.index))
	// Newest first, matching the SQL repository's ORDER BY created_at DESC.
	for i := len(s.index) - 1; i >= 0; i-- {
		result = append(result, s.orders[s.index[i]].Clone())
	}
	return result, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}

	o.Status = status
	o.PaymentStatus = paymentStatus
	return nil
}
