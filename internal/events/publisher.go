package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handcraftedhaven/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultOrderStatusTopic = "order-status"
	EventTypeHeader         = "event_type"
	OrderStatusChangedType  = "OrderStatusChanged"
)

type OrderStatusChanged struct {
	OrderID    uuid.UUID          `json:"order_id"`
	BuyerID    uuid.UUID          `json:"buyer_id"`
	From       domain.OrderStatus `json:"from"`
	To         domain.OrderStatus `json:"to"`
	Action     domain.OrderAction `json:"action"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultOrderStatusTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

// PublishOrderStatusChanged writes the event keyed by order id, so every
// change of one order lands on the same partition.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order status event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(OrderStatusChangedType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order status event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderStatusChanged(context.Context, OrderStatusChanged) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
