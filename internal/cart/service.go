package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/easymeds/platform/internal/cart/cache"
	"github.com/easymeds/platform/internal/cart/repository"
	"github.com/easymeds/platform/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service is the single source of truth for a session's intended purchases.
// The in-memory cart stays authoritative for the whole session; the
// repository is write-through durability and the cache a read accelerator.
// A failed persist degrades durability, never the mutation itself.
type Service struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	logger *zap.Logger
	sfg    singleflight.Group // prevents double hydration per session

	mu       sync.Mutex
	sessions map[string]*domain.Cart
}

func NewService(repo repository.CartRepository, c cache.CartCache, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    c,
		logger:   logger,
		sessions: make(map[string]*domain.Cart),
	}
}

// GetCart returns a copy of the session's cart, hydrating it from storage
// on first access.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.Clone(), nil
}

// AddItem inserts a new line or accumulates quantity onto the existing line
// for the same item. A quantity below 1 is treated as 1.
func (s *Service) AddItem(ctx context.Context, sessionID string, item domain.CartLine, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	found := false
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == item.ItemID {
			cart.Lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		item.Quantity = quantity
		cart.Lines = append(cart.Lines, item)
	}
	cart.UpdatedAt = time.Now()
	snapshot := cart.Clone()
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot)
	return snapshot, nil
}

// SetQuantity replaces a line's quantity. A value of zero or below removes
// the line entirely, identical to RemoveItem.
func (s *Service) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}

	cart, err := s.hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range cart.Lines {
		if cart.Lines[i].ItemID == itemID {
			cart.Lines[i].Quantity = quantity
			break
		}
	}
	cart.UpdatedAt = time.Now()
	snapshot := cart.Clone()
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot)
	return snapshot, nil
}

// RemoveItem drops the line with the given item ID. Removing an absent
// item is a no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	cart, err := s.hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i, line := range cart.Lines {
		if line.ItemID == itemID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			break
		}
	}
	cart.UpdatedAt = time.Now()
	snapshot := cart.Clone()
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot)
	return snapshot, nil
}

// Clear empties the cart. Called by checkout only after the order has been
// created, so a failure in between leaves the cart intact for retry.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	cart, err := s.hydrate(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	cart.Lines = nil
	cart.UpdatedAt = time.Now()
	snapshot := cart.Clone()
	s.mu.Unlock()

	s.persist(ctx, sessionID, snapshot)
	return nil
}

// Snapshot returns a detached copy of the current lines for the order
// materializer. Cart mutations after the snapshot never leak into an
// order already being created.
func (s *Service) Snapshot(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cart.Lines, nil
}

// hydrate returns the live in-memory cart for the session, loading it from
// cache/repository exactly once. A corrupt stored snapshot is discarded and
// the session starts empty.
func (s *Service) hydrate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.Lock()
	if cart, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		return cart, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		loaded := s.load(ctx, sessionID)

		s.mu.Lock()
		defer s.mu.Unlock()
		// Another hydration may have won between Do calls; keep the first.
		if existing, ok := s.sessions[sessionID]; ok {
			return existing, nil
		}
		s.sessions[sessionID] = loaded
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Service) load(ctx context.Context, sessionID string) *domain.Cart {
	cart, err := s.cache.Get(ctx, sessionID)
	if err == nil {
		return cart
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cart cache get failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	cart, err = s.repo.GetCart(ctx, sessionID)
	switch {
	case err == nil:
		s.warmCache(sessionID, cart.Clone())
		return cart
	case errors.Is(err, repository.ErrCartNotFound):
		// no prior cart for this session
	case errors.Is(err, repository.ErrCorruptSnapshot):
		s.logger.Warn("discarding corrupt cart snapshot", zap.String("session_id", sessionID), zap.Error(err))
		if delErr := s.repo.DeleteCart(ctx, sessionID); delErr != nil && !errors.Is(delErr, repository.ErrCartNotFound) {
			s.logger.Warn("failed to discard corrupt snapshot", zap.String("session_id", sessionID), zap.Error(delErr))
		}
	default:
		s.logger.Warn("cart repository get failed, starting empty", zap.String("session_id", sessionID), zap.Error(err))
	}

	now := time.Now()
	return &domain.Cart{
		SessionID: sessionID,
		Lines:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// warmCache stores a freshly loaded snapshot so the next hydration of this
// session is served from cache. Runs off the request path; a failed set is
// only a missed acceleration.
func (s *Service) warmCache(sessionID string, snapshot *domain.Cart) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, sessionID, snapshot); err != nil {
			s.logger.Warn("cart cache set failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

// persist writes the mutated cart through to the repository and refreshes
// the cache. Failures are logged and flagged on the returned snapshot; the
// in-memory state remains authoritative for the rest of the session.
func (s *Service) persist(ctx context.Context, sessionID string, snapshot *domain.Cart) {
	if err := s.repo.UpsertCart(ctx, snapshot); err != nil {
		s.logger.Warn("cart persistence degraded, items might not survive a restart",
			zap.String("session_id", sessionID), zap.Error(err))
		snapshot.PersistWarning = true
		return
	}

	invalidateCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(invalidateCtx, sessionID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Forget drops the session's in-memory cart so the next access rehydrates
// from the repository. Exists for durability round-trip tests and session
// expiry sweeps.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
