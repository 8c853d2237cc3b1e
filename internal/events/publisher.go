package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/easymeds/platform/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Publisher emits order lifecycle events for downstream consumers
// (notifications, analytics). Publishing is best-effort: the order is
// already durable by the time an event goes out.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	Close() error
}

type OrderCreatedEvent struct {
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentStatus string    `json:"payment_status"`
	ItemCount     int       `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	event := OrderCreatedEvent{
		OrderID:       order.ID,
		CustomerName:  order.Customer.Name,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: string(order.PaymentStatus),
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

func (NopPublisher) Close() error { return nil }
