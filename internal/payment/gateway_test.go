package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easymeds/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProcessor struct {
	err   error
	calls int
}

func (s *stubProcessor) Process(context.Context, float64) (*ChargeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ChargeResult{Reference: "pay_test"}, nil
}

func TestCharge_CODSkipsProcessor(t *testing.T) {
	proc := &stubProcessor{}
	sut := NewBreakerGateway(proc, zap.NewNop())

	err := sut.Charge(context.Background(), domain.PaymentMethodCOD, 150)
	require.NoError(t, err)
	assert.Zero(t, proc.calls)
}

func TestCharge_OnlineSuccess(t *testing.T) {
	proc := &stubProcessor{}
	sut := NewBreakerGateway(proc, zap.NewNop())

	err := sut.Charge(context.Background(), domain.PaymentMethodOnline, 150)
	require.NoError(t, err)
	assert.Equal(t, 1, proc.calls)
}

func TestCharge_DeclinedPassesThrough(t *testing.T) {
	proc := &stubProcessor{err: ErrChargeDeclined}
	sut := NewBreakerGateway(proc, zap.NewNop())

	err := sut.Charge(context.Background(), domain.PaymentMethodOnline, 150)
	assert.ErrorIs(t, err, ErrChargeDeclined)
}

func TestCharge_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	proc := &stubProcessor{err: errors.New("connection reset")}
	sut := NewBreakerGateway(proc, zap.NewNop())

	for i := 0; i < 3; i++ {
		err := sut.Charge(context.Background(), domain.PaymentMethodOnline, 150)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	}

	callsBefore := proc.calls
	err := sut.Charge(context.Background(), domain.PaymentMethodOnline, 150)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, callsBefore, proc.calls, "open breaker must not reach the processor")
}

func TestSimulatedProcessor_RespectsContext(t *testing.T) {
	proc := &SimulatedProcessor{Delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := proc.Process(ctx, 150)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulatedProcessor_Approves(t *testing.T) {
	proc := &SimulatedProcessor{Delay: time.Millisecond}

	result, err := proc.Process(context.Background(), 150)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reference)
}
