package order

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/easymeds/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	err    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: make(map[string]*domain.Order)}
}

func (m *mockRepository) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.orders[o.ID]; exists {
		return ErrDuplicateOrder
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *mockRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (m *mockRepository) ListOrders(context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.orders {
		result = append(result, o.Clone())
	}
	return result, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (m *mockPublisher) PublishOrderCreated(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, o.ID)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func testLines() []domain.CartLine {
	return []domain.CartLine{
		{ItemID: "p1", Name: "Paracetamol", UnitPrice: 50, Quantity: 2, Kind: domain.ItemKindProduct},
	}
}

func testCustomer() domain.Customer {
	return domain.Customer{Name: "Abebe Bikila", Email: "a@b.com", Phone: "0911000000", Address: "Bole"}
}

var orderIDPattern = regexp.MustCompile(`^ord_\d+_[a-z0-9]{6}$`)

func TestCreateOrder_Success(t *testing.T) {
	repo := newMockRepository()
	pub := &mockPublisher{}
	sut := NewService(repo, pub, zap.NewNop())

	id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodCOD, 150, 50)
	require.NoError(t, err)
	assert.Regexp(t, orderIDPattern, id)

	got, err := sut.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, got.PaymentStatus)
	assert.Equal(t, 150.0, got.TotalAmount)
	assert.Equal(t, "Abebe Bikila", got.Customer.Name)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 50.0, got.Items[0].UnitPrice)
	assert.Equal(t, 100.0, got.Items[0].LineTotal)

	assert.Equal(t, []string{id}, pub.published)
}

func TestCreateOrder_PaymentStatusDerivation(t *testing.T) {
	tests := []struct {
		method domain.PaymentMethod
		want   domain.PaymentStatus
	}{
		{domain.PaymentMethodOnline, domain.PaymentStatusPaid},
		{domain.PaymentMethodCOD, domain.PaymentStatusUnpaid},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			repo := newMockRepository()
			sut := NewService(repo, &mockPublisher{}, zap.NewNop())

			id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), tt.method, 150, 50)
			require.NoError(t, err)

			got, err := sut.GetOrder(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PaymentStatus)
		})
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	sut := NewService(newMockRepository(), &mockPublisher{}, zap.NewNop())

	_, err := sut.CreateOrder(context.Background(), nil, testCustomer(), domain.PaymentMethodCOD, 0, 0)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder_SnapshotIsDetached(t *testing.T) {
	repo := newMockRepository()
	sut := NewService(repo, &mockPublisher{}, zap.NewNop())

	lines := testLines()
	id, err := sut.CreateOrder(context.Background(), lines, testCustomer(), domain.PaymentMethodCOD, 150, 50)
	require.NoError(t, err)

	// Mutating the input after submission must not alter the created order.
	lines[0].Quantity = 99
	lines[0].UnitPrice = 1

	got, err := sut.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 50.0, got.Items[0].UnitPrice)
}

func TestCreateOrder_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.err = errors.New("connection refused")
	pub := &mockPublisher{}
	sut := NewService(repo, pub, zap.NewNop())

	_, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodCOD, 150, 50)
	require.Error(t, err)
	assert.Empty(t, pub.published, "no event for an order that was never written")
}

func TestCreateOrder_PublishFailureIsNonFatal(t *testing.T) {
	repo := newMockRepository()
	pub := &mockPublisher{err: errors.New("brokers unreachable")}
	sut := NewService(repo, pub, zap.NewNop())

	id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodOnline, 150, 50)
	require.NoError(t, err)

	_, err = sut.GetOrder(context.Background(), id)
	assert.NoError(t, err)
}

func TestCreateOrder_UniqueIDs(t *testing.T) {
	repo := newMockRepository()
	sut := NewService(repo, &mockPublisher{}, zap.NewNop())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodCOD, 150, 50)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	repo := newMockRepository()
	sut := NewService(repo, &mockPublisher{}, zap.NewNop())

	id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodCOD, 150, 50)
	require.NoError(t, err)

	got, err := sut.UpdateStatus(context.Background(), id, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	repo := newMockRepository()
	sut := NewService(repo, &mockPublisher{}, zap.NewNop())

	id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodCOD, 150, 50)
	require.NoError(t, err)

	_, err = sut.UpdateStatus(context.Background(), id, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_CancelPaidOrderFlagsRefund(t *testing.T) {
	repo := newMockRepository()
	sut := NewService(repo, &mockPublisher{}, zap.NewNop())

	id, err := sut.CreateOrder(context.Background(), testLines(), testCustomer(), domain.PaymentMethodOnline, 150, 50)
	require.NoError(t, err)

	got, err := sut.UpdateStatus(context.Background(), id, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	assert.Equal(t, domain.PaymentStatusPendingRefund, got.PaymentStatus)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	sut := NewService(newMockRepository(), &mockPublisher{}, zap.NewNop())

	_, err := sut.UpdateStatus(context.Background(), "ord_missing", domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
