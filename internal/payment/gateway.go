package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/easymeds/platform/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrChargeDeclined = errors.New("charge declined")

	// ErrGatewayUnavailable covers both transport failures and an open
	// breaker; checkout surfaces it as a retryable condition.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Gateway confirms online payments before an order is materialized.
// Cash-on-delivery settles at the door, so Charge is a no-op for it.
type Gateway interface {
	Charge(ctx context.Context, method domain.PaymentMethod, amount float64) error
}

type ChargeResult struct {
	Reference string
}

// Processor is the underlying transport to the payment provider.
type Processor interface {
	Process(ctx context.Context, amount float64) (*ChargeResult, error)
}

// BreakerGateway wraps the processor in a circuit breaker so a flapping
// provider fails checkouts fast instead of piling up blocked requests.
type BreakerGateway struct {
	breaker *gobreaker.CircuitBreaker[*ChargeResult]
	proc    Processor
	logger  *zap.Logger
}

func NewBreakerGateway(proc Processor, logger *zap.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerGateway{
		breaker: gobreaker.NewCircuitBreaker[*ChargeResult](settings),
		proc:    proc,
		logger:  logger,
	}
}

func (g *BreakerGateway) Charge(ctx context.Context, method domain.PaymentMethod, amount float64) error {
	if method != domain.PaymentMethodOnline {
		return nil
	}

	result, err := g.breaker.Execute(func() (*ChargeResult, error) {
		return g.proc.Process(ctx, amount)
	})
	if err != nil {
		if errors.Is(err, ErrChargeDeclined) {
			return err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit open", ErrGatewayUnavailable)
		}
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	g.logger.Info("online payment confirmed",
		zap.String("reference", result.Reference),
		zap.Float64("amount", amount))
	return nil
}

// SimulatedProcessor stands in for a real provider: a short latency and an
// always-approved charge.
type SimulatedProcessor struct {
	Delay time.Duration
}

func (p *SimulatedProcessor) Process(ctx context.Context, amount float64) (*ChargeResult, error) {
	delay := p.Delay
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &ChargeResult{
		Reference: fmt.Sprintf("pay_%d", time.Now().UnixNano()),
	}, nil
}
