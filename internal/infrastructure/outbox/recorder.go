package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/tracing"
)

// Recorder stores events for later relay by a Dispatcher.
type Recorder struct {
	Repo Repository
	Now  func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{Repo: repo, Now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, evt event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", evt.Type, err)
	}

	return r.Repo.Save(ctx, OutboxEvent{
		ID:          uuid.NewString(),
		Type:        evt.Type,
		Payload:     payload,
		Traceparent: tracing.Traceparent(ctx),
		CreatedAt:   r.Now(),
	})
}
