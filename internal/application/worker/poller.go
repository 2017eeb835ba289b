package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/mercadopago"
)

type Searcher interface {
	Search(ctx context.Context, q mercadopago.SearchQuery) (mercadopago.SearchResult, error)
}

// Poller re-derives approved payments from the search endpoint as a backstop
// for lost or late webhooks.
type Poller struct {
	Source         Searcher
	Processor      Processor
	Logger         logging.Logger
	Interval       time.Duration
	RateLimitPause time.Duration
	PageSize       int
	Now            func() time.Time

	lastCheck time.Time
}

func (p *Poller) Run(ctx context.Context) {
	p.lastCheck = p.now()

	for {
		if !wait(ctx, p.Interval) {
			return
		}

		err := p.Poll(ctx)
		switch {
		case errors.Is(err, mercadopago.ErrRateLimited):
			p.Logger.Info("search rate limited, backing off", map[string]any{
				"pause": p.RateLimitPause.String(),
			})
			if !wait(ctx, p.RateLimitPause) {
				return
			}
		case err != nil:
			p.Logger.Error("polling cycle failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
}

// Poll runs one cycle over [lastCheck, now]. The window start only moves
// forward when the search itself succeeded, so an outage widens the next
// window instead of skipping it.
func (p *Poller) Poll(ctx context.Context) error {
	now := p.now()
	if p.lastCheck.IsZero() {
		p.lastCheck = now
	}

	ids, err := p.search(ctx, p.lastCheck, now)
	if err != nil {
		return err
	}

	for _, id := range ids {
		outcome, err := p.Processor.Process(ctx, SourcePolling, id)
		if err != nil {
			p.Logger.Error("polled payment failed", map[string]any{
				"payment-id": id,
				"error":      err.Error(),
			})
			continue
		}
		if outcome == OutcomeInserted {
			p.Logger.Info("payment detected by polling", map[string]any{
				"payment-id": id,
			})
		}
	}

	p.lastCheck = now
	return nil
}

// Window is the start of the next search window.
func (p *Poller) Window() time.Time {
	return p.lastCheck
}

func (p *Poller) search(ctx context.Context, begin, end time.Time) ([]string, error) {
	limit := p.PageSize
	if limit <= 0 {
		limit = 50
	}

	var ids []string
	for offset := 0; ; {
		res, err := p.Source.Search(ctx, mercadopago.SearchQuery{
			Begin:  begin,
			End:    end,
			Status: string(payment.StatusApproved),
			Offset: offset,
			Limit:  limit,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range res.Results {
			if id := payment.IDString(item.ID); id != "" {
				ids = append(ids, id)
			}
		}

		offset += len(res.Results)
		if len(res.Results) == 0 || offset >= res.Paging.Total {
			return ids, nil
		}
	}
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
