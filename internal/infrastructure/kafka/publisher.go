package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/tracing"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// Publisher forwards bus events to a topic. Payment events are keyed by
// external id so every event of one payment lands on one partition.
type Publisher struct {
	Writer MessageWriter
	Topic  string
	Logger logging.Logger
}

func (p *Publisher) Handle(ctx context.Context, evt event.Event) error {
	value, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type, err)
	}

	headers := tracing.InjectKafkaHeaders(ctx, []kafka.Header{
		{Key: "event_type", Value: []byte(evt.Type)},
	})

	msg := kafka.Message{
		Topic:   p.Topic,
		Key:     []byte(key(evt)),
		Value:   value,
		Headers: headers,
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		p.Logger.Error("kafka publish failed", map[string]any{
			"type":  string(evt.Type),
			"error": err.Error(),
		})
		return err
	}

	p.Logger.Info("kafka event published", map[string]any{
		"type":  string(evt.Type),
		"key":   string(msg.Key),
		"topic": p.Topic,
	})
	return nil
}

func key(evt event.Event) string {
	if p, ok := evt.Payload.(event.PaymentRecordedPayload); ok {
		return p.ExternalID
	}
	return string(evt.Type)
}
