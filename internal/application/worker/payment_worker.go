package worker

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
)

type Processor interface {
	Process(ctx context.Context, source, paymentID string) (Outcome, error)
}

// Dispatcher hands webhook payment ids to background goroutines so the
// HTTP acknowledgment never waits on upstream calls. At most Concurrency
// ids are processed at once; the rest wait their turn instead of being
// dropped.
type Dispatcher struct {
	Processor Processor
	Logger    logging.Logger

	ctx context.Context
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewDispatcher binds background work to ctx, which outlives the requests
// that submit ids.
func NewDispatcher(ctx context.Context, proc Processor, concurrency int, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		Processor: proc,
		Logger:    logger,
		ctx:       ctx,
		sem:       make(chan struct{}, max(concurrency, 1)),
	}
}

// Submit never blocks. The task runs under the dispatcher's context; only
// the span context of ctx is carried over, so the trace of the submitting
// request continues after that request has finished. Ids submitted after
// shutdown are dropped.
func (d *Dispatcher) Submit(ctx context.Context, source, paymentID string) {
	if d.ctx.Err() != nil {
		return
	}

	taskCtx := d.ctx
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		taskCtx = trace.ContextWithRemoteSpanContext(d.ctx, sc)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case d.sem <- struct{}{}:
		case <-d.ctx.Done():
			return
		}
		defer func() { <-d.sem }()

		if d.ctx.Err() != nil {
			return
		}

		outcome, err := d.Processor.Process(taskCtx, source, paymentID)
		if err != nil {
			d.Logger.Error("payment processing failed", map[string]any{
				"payment-id": paymentID,
				"source":     source,
				"error":      err.Error(),
			})
			return
		}
		d.Logger.Info("payment processed", map[string]any{
			"payment-id": paymentID,
			"source":     source,
			"outcome":    outcome,
		})
	}()
}

// Wait blocks until every submitted id has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
