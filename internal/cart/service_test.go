package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easymeds/platform/internal/cart/cache"
	"github.com/easymeds/platform/internal/cart/repository"
	"github.com/easymeds/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingRepository struct {
	getErr    error
	upsertErr error
}

func (f *failingRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, repository.ErrCartNotFound
}

func (f *failingRepository) UpsertCart(context.Context, *domain.Cart) error {
	return f.upsertErr
}

func (f *failingRepository) DeleteCart(context.Context, string) error {
	return nil
}

// recordingCache misses on every Get but records what gets stored.
type recordingCache struct {
	cache.NopCache
	setCalls chan *domain.Cart
}

func (r *recordingCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	r.setCalls <- cart
	return nil
}

func newTestService(repo repository.CartRepository) *Service {
	return NewService(repo, cache.NopCache{}, zap.NewNop())
}

func paracetamol() domain.CartLine {
	return domain.CartLine{
		ItemID:    "med_paracetamol_500",
		Name:      "Paracetamol 500mg",
		UnitPrice: 50,
		Kind:      domain.ItemKindProduct,
	}
}

func cbcTest() domain.CartLine {
	return domain.CartLine{
		ItemID:    "lab_cbc",
		Name:      "Complete Blood Count",
		UnitPrice: 300,
		Kind:      domain.ItemKindDiagnosticTest,
	}
}

func TestAddItem_AccumulatesQuantity(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	cart, err := sut.AddItem(ctx, "s1", paracetamol(), 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, 250.0, cart.Subtotal())
}

func TestAddItem_QuantityBelowOneTreatedAsOne(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())

	cart, err := sut.AddItem(context.Background(), "s1", paracetamol(), 0)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestSetQuantity_Replaces(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	cart, err := sut.SetQuantity(ctx, "s1", "med_paracetamol_500", 7)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 7, cart.Lines[0].Quantity)
}

func TestSetQuantity_ZeroOrNegativeRemovesLine(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		sut := newTestService(repository.NewMemoryRepository())
		ctx := context.Background()

		_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
		require.NoError(t, err)

		cart, err := sut.SetQuantity(ctx, "s1", "med_paracetamol_500", quantity)
		require.NoError(t, err)
		assert.Empty(t, cart.Lines, "quantity %d should remove the line", quantity)
	}
}

func TestRemoveItem_AbsentIsNoOp(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 1)
	require.NoError(t, err)

	cart, err := sut.RemoveItem(ctx, "s1", "does-not-exist")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestTotals_ConsistentAfterEveryMutation(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	check := func(cart *domain.Cart) {
		t.Helper()
		var wantSubtotal float64
		var wantCount int
		for _, l := range cart.Lines {
			wantSubtotal += l.UnitPrice * float64(l.Quantity)
			wantCount += l.Quantity
		}
		assert.Equal(t, wantSubtotal, cart.Subtotal())
		assert.Equal(t, wantCount, cart.TotalItemCount())
	}

	cart, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)
	check(cart)

	cart, err = sut.AddItem(ctx, "s1", cbcTest(), 1)
	require.NoError(t, err)
	check(cart)
	assert.Equal(t, 400.0, cart.Subtotal())
	assert.Equal(t, 3, cart.TotalItemCount())

	cart, err = sut.SetQuantity(ctx, "s1", "lab_cbc", 4)
	require.NoError(t, err)
	check(cart)

	cart, err = sut.RemoveItem(ctx, "s1", "med_paracetamol_500")
	require.NoError(t, err)
	check(cart)
	assert.Equal(t, 1200.0, cart.Subtotal())
}

func TestClear_EmptiesCart(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sut := newTestService(repo)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	require.NoError(t, sut.Clear(ctx, "s1"))

	cart, err := sut.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	// The empty state is persisted too.
	sut.Forget("s1")
	cart, err = sut.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestPersistFailure_IsNonFatal(t *testing.T) {
	repo := &failingRepository{upsertErr: errors.New("storage quota exceeded")}
	sut := newTestService(repo)

	cart, err := sut.AddItem(context.Background(), "s1", paracetamol(), 2)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.True(t, cart.PersistWarning)

	// In-memory state stays authoritative for subsequent operations.
	cart, err = sut.AddItem(context.Background(), "s1", paracetamol(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
}

func TestDurability_RoundTrip(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sut := newTestService(repo)
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)
	before, err := sut.AddItem(ctx, "s1", cbcTest(), 1)
	require.NoError(t, err)

	// Simulate a reload: drop in-memory state and rehydrate from storage.
	sut.Forget("s1")

	after, err := sut.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, before.Lines, after.Lines)
}

func TestHydrate_CorruptSnapshotDiscarded(t *testing.T) {
	repo := repository.NewMemoryRepository()
	repo.PutBlob("s1", []byte("{{{definitely not a cart"))
	sut := newTestService(repo)

	cart, err := sut.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	// The corrupt blob was deleted rather than retried.
	assert.False(t, repo.HasBlob("s1"))
}

func TestHydrate_WarmsCacheAfterRepositoryRead(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	// Persist a cart, then rehydrate it through a service whose cache
	// records writes.
	_, err := newTestService(repo).AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	rec := &recordingCache{setCalls: make(chan *domain.Cart, 1)}
	sut := NewService(repo, rec, zap.NewNop())

	_, err = sut.GetCart(ctx, "s1")
	require.NoError(t, err)

	select {
	case warmed := <-rec.setCalls:
		require.Len(t, warmed.Lines, 1)
		assert.Equal(t, "med_paracetamol_500", warmed.Lines[0].ItemID)
	case <-time.After(time.Second):
		t.Fatal("cache was never warmed after the repository read")
	}
}

func TestMutations_RefreshUpdatedAt(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	first, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := sut.SetQuantity(ctx, "s1", "med_paracetamol_500", 4)
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	// The served cart reflects the refreshed timestamp too.
	got, err := sut.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, second.UpdatedAt, got.UpdatedAt)
}

func TestSnapshot_IsDetached(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	snapshot, err := sut.Snapshot(ctx, "s1")
	require.NoError(t, err)

	// A mutation after the snapshot must not alter it.
	_, err = sut.SetQuantity(ctx, "s1", "med_paracetamol_500", 9)
	require.NoError(t, err)

	require.Len(t, snapshot, 1)
	assert.Equal(t, 2, snapshot[0].Quantity)
}

func TestSessions_AreIsolated(t *testing.T) {
	sut := newTestService(repository.NewMemoryRepository())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "s1", paracetamol(), 2)
	require.NoError(t, err)

	cart, err := sut.GetCart(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}
