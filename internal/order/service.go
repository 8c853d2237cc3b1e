package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/easymeds/platform/internal/domain"
	"github.com/easymeds/platform/internal/events"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cannot create an order from an empty cart")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

const publishTimeout = 3 * time.Second

// Service materializes cart snapshots into immutable orders and owns the
// post-creation status machine.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder converts the given cart snapshot plus checkout details into a
// durable order and returns its generated ID. The caller has already
// computed totalAmount (subtotal + delivery fee) and, for online payment,
// confirmed the charge; pricing is not recomputed here. The originating
// cart is NOT cleared — that is the caller's explicit follow-up, so a
// failure in between leaves the cart intact for retry.
func (s *Service) CreateOrder(
	ctx context.Context,
	lines []domain.CartLine,
	customer domain.Customer,
	method domain.PaymentMethod,
	totalAmount float64,
	deliveryFee float64,
) (string, error) {
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	now := s.now()

	items := make([]domain.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = domain.OrderItem{
			ItemID:    line.ItemID,
			ItemName:  line.Name,
			Kind:      line.Kind,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal(),
		}
	}

	order := &domain.Order{
		ID:            newOrderID(now),
		Customer:      customer,
		TotalAmount:   totalAmount,
		DeliveryFee:   deliveryFee,
		Status:        domain.OrderStatusPending,
		PaymentStatus: paymentStatusFor(method),
		PaymentMethod: method,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	// Best-effort: the order is already durable, a lost event is recoverable.
	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderCreated(pubCtx, order); err != nil {
		s.logger.Warn("failed to publish order-created event",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	return order.ID, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateStatus advances an order through the fulfillment state machine.
// Cancelling a paid order flips its payment status to PendingRefund.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	paymentStatus := order.PaymentStatus
	if next == domain.OrderStatusCancelled && order.PaymentStatus == domain.PaymentStatusPaid {
		paymentStatus = domain.PaymentStatusPendingRefund
	}

	if err := s.repo.UpdateStatus(ctx, id, next, paymentStatus); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = next
	order.PaymentStatus = paymentStatus
	return order, nil
}

// paymentStatusFor reflects that online payment is confirmed synchronously
// before order creation, while cash on delivery settles at the door.
func paymentStatusFor(method domain.PaymentMethod) domain.PaymentStatus {
	if method == domain.PaymentMethodOnline {
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusUnpaid
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newOrderID generates ids like ord_1735689600000_k3x9qa: a time-based
// prefix keeps ids monotonically distinguishable, the random suffix avoids
// collisions within one millisecond under the single-writer repository.
func newOrderID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return fmt.Sprintf("ord_%d_%s", now.UnixMilli(), suffix)
}
