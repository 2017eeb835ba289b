package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/outbox"
)

type OutboxRepository struct {
	mu     sync.Mutex
	events map[string]outbox.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{events: make(map[string]outbox.OutboxEvent)}
}

func (r *OutboxRepository) Save(_ context.Context, evt outbox.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[evt.ID] = evt
	return nil
}

func (r *OutboxRepository) FindUnpublished(_ context.Context, limit int) ([]outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []outbox.OutboxEvent
	for _, evt := range r.events {
		if !evt.Published {
			pending = append(pending, evt)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkPublished drops the event; nothing reads published events back.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, id)
	return nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)
