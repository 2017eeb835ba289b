package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/tracing"
)

const maxWebhookBody = 1 << 20

// Submitter queues a payment id for background processing. ctx only
// carries the trace of the notification; it is not the task lifetime.
type Submitter interface {
	Submit(ctx context.Context, source, paymentID string)
}

// WebhookHandler acknowledges every notification at once and hands payment
// ids to the background dispatcher.
type WebhookHandler struct {
	Dispatcher Submitter
	Logger     logging.Logger
	Metrics    *metrics.Counters
}

type webhookBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID any `json:"id"`
	} `json:"data"`
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer("payment-http").Start(ctx, "Webhook")
	defer span.End()

	h.Metrics.IncReceived()

	topic, paymentID := parseNotification(r)
	span.SetAttributes(
		attribute.String("notification.topic", topic),
		attribute.String("payment.id", paymentID),
	)

	if strings.Contains(topic, "payment") && paymentID != "" {
		h.Logger.Info("payment notification received", map[string]any{
			"payment-id": paymentID,
			"topic":      topic,
			"trace-id":   tracing.TraceID(ctx),
		})
		h.Dispatcher.Submit(ctx, worker.SourceWebhook, paymentID)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// parseNotification reads topic and id from the query string (IPN format),
// falling back to the JSON body (webhook format) for whichever is missing.
func parseNotification(r *http.Request) (topic, paymentID string) {
	q := r.URL.Query()
	topic = q.Get("topic")
	paymentID = q.Get("id")
	if topic != "" && paymentID != "" {
		return topic, paymentID
	}

	var body webhookBody
	if r.Body != nil {
		_ = json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&body)
	}

	if topic == "" {
		topic = body.Type
		if topic == "" {
			topic = body.Topic
		}
	}
	if paymentID == "" {
		paymentID = strings.TrimSpace(cast.ToString(body.Data.ID))
	}
	return topic, paymentID
}
