package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
)

type HandlerFunc func(ctx context.Context, evt event.Event) error

type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[event.Type][]HandlerFunc),
	}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs the handlers of evt.Type in subscription order and stops at
// the first failure.
func (b *InMemoryBus) Publish(ctx context.Context, evt event.Event) error {
	b.mu.RLock()
	handlers := b.handlers[evt.Type]
	b.mu.RUnlock()

	for i, handler := range handlers {
		if err := handler(ctx, evt); err != nil {
			return fmt.Errorf("%s handler %d: %w", evt.Type, i, err)
		}
	}

	return nil
}
