package announce

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
)

// Speaker plays text and returns once playback ended or failed.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	// Reset reinitializes the engine after a failed utterance.
	Reset() error
}

// Queue is an unbounded FIFO of messages drained by exactly one consumer,
// so announcements never overlap and keep their enqueue order.
type Queue struct {
	Speaker Speaker
	Logger  logging.Logger
	Metrics *metrics.Counters

	mu      sync.Mutex
	pending []string
	signal  chan struct{}
	once    sync.Once
}

func NewQueue(speaker Speaker, logger logging.Logger, m *metrics.Counters) *Queue {
	q := &Queue{Speaker: speaker, Logger: logger, Metrics: m}
	q.init()
	return q
}

func (q *Queue) init() {
	q.once.Do(func() {
		q.signal = make(chan struct{}, 1)
	})
}

// Enqueue never blocks.
func (q *Queue) Enqueue(text string) {
	q.init()

	q.mu.Lock()
	q.pending = append(q.pending, text)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) Announce(name string, amount decimal.Decimal, rejected bool) {
	q.Enqueue(Message(name, amount, rejected))
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return "", false
	}
	msg := q.pending[0]
	q.pending[0] = ""
	q.pending = q.pending[1:]
	return msg, true
}

// Run is the single consumer. It must be started once and returns only when
// ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	q.init()

	for ctx.Err() == nil {
		msg, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.signal:
				continue
			}
		}

		q.speak(ctx, msg)
	}
}

func (q *Queue) speak(ctx context.Context, msg string) {
	if err := q.Speaker.Speak(ctx, msg); err != nil {
		q.Metrics.IncSpeechFailed()
		q.Logger.Error("announcement failed", map[string]any{
			"message": msg,
			"error":   err.Error(),
		})
		if err := q.Speaker.Reset(); err != nil {
			q.Logger.Error("speech reset failed", map[string]any{
				"error": err.Error(),
			})
		}
		return
	}

	q.Metrics.IncSpoken()
	q.Logger.Info("announcement spoken", map[string]any{
		"message": msg,
	})
}
