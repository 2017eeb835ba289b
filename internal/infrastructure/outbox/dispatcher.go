package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/tracing"
)

type EventPublisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

type Dispatcher struct {
	Repo         Repository
	EventBus     EventPublisher
	Logger       logging.Logger
	PollInterval time.Duration
	BatchSize    int
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce relays one batch and returns how many events were published.
// Events whose publish fails stay pending for the next round.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.Logger.Error("outbox read failed", map[string]any{"error": err.Error()})
		return 0
	}

	published := 0
	for _, evt := range events {
		payload, err := decode(evt)
		if err != nil {
			d.Logger.Error("outbox payload undecodable", map[string]any{
				"event_id": evt.ID,
				"error":    err.Error(),
			})
			continue
		}

		evtCtx := tracing.ContextWithTraceparent(ctx, evt.Traceparent)
		if err := d.EventBus.Publish(evtCtx, event.Event{Type: evt.Type, Payload: payload}); err != nil {
			d.Logger.Error("outbox publish failed", map[string]any{
				"event_id": evt.ID,
				"type":     string(evt.Type),
				"error":    err.Error(),
			})
			continue
		}

		if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
			d.Logger.Error("outbox mark failed", map[string]any{
				"event_id": evt.ID,
				"error":    err.Error(),
			})
			continue
		}
		published++
	}

	return published
}

func decode(evt OutboxEvent) (any, error) {
	switch evt.Type {
	case event.PaymentRecorded:
		var p event.PaymentRecordedPayload
		err := json.Unmarshal(evt.Payload, &p)
		return p, err
	}

	var payload any
	err := json.Unmarshal(evt.Payload, &payload)
	return payload, err
}
