package payment

import (
	"context"
	"errors"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
)

// RecordedEventHandler writes an audit line for every relayed payment event.
type RecordedEventHandler struct {
	Logger logging.Logger
}

func (h *RecordedEventHandler) Handle(_ context.Context, evt event.Event) error {
	switch evt.Type {
	case event.PaymentRecorded:
		payload, ok := evt.Payload.(event.PaymentRecordedPayload)
		if !ok {
			return errors.New("invalid payload for PaymentRecorded")
		}
		h.Logger.Info("payment recorded", map[string]any{
			"payment-id": payload.ExternalID,
			"payer":      payload.PayerName,
			"amount":     payload.Amount,
			"status":     payload.Status,
			"source":     payload.Source,
		})
	}
	return nil
}
