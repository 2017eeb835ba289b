package worker

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/resolver"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
)

var ErrEmptyPaymentID = errors.New("empty payment id")

type DetailFetcher interface {
	FetchDetail(ctx context.Context, paymentID string) (*payment.Detail, error)
}

// Guard suppresses concurrent work on the same payment id across processes.
type Guard interface {
	Claim(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string) error
}

// PaymentProcessor runs fetch -> resolve -> ingest for one payment id. The
// webhook and the poller share it.
type PaymentProcessor struct {
	Client   DetailFetcher
	Resolver *resolver.Resolver
	Ingestor *Ingestor
	Guard    Guard
	Logger   logging.Logger
	Metrics  *metrics.Counters
}

func (p *PaymentProcessor) Process(ctx context.Context, source, paymentID string) (Outcome, error) {
	if paymentID == "" {
		return "", ErrEmptyPaymentID
	}

	ctx, span := otel.Tracer("payment-processor").Start(ctx, "ProcessPayment")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.id", paymentID),
		attribute.String("payment.source", source),
	)

	outcome, err := p.process(ctx, source, paymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	return outcome, nil
}

func (p *PaymentProcessor) process(ctx context.Context, source, paymentID string) (Outcome, error) {
	exists, err := p.Ingestor.Repo.Exists(ctx, paymentID)
	if err != nil {
		p.Logger.Error("existence check failed", map[string]any{
			"payment-id": paymentID,
			"error":      err.Error(),
		})
	}
	if exists {
		p.Metrics.IncDuplicated()
		return OutcomeDuplicate, nil
	}

	if p.Guard != nil {
		claimed, err := p.Guard.Claim(ctx, paymentID)
		switch {
		case err != nil:
			p.Logger.Error("idempotency guard unavailable", map[string]any{
				"payment-id": paymentID,
				"error":      err.Error(),
			})
		case !claimed:
			p.Logger.Info("payment already in flight", map[string]any{
				"payment-id": paymentID,
				"source":     source,
			})
			return OutcomeSkipped, nil
		}
	}

	outcome, err := p.fetchAndIngest(ctx, source, paymentID)
	if err != nil && p.Guard != nil {
		if rerr := p.Guard.Release(ctx, paymentID); rerr != nil {
			p.Logger.Error("idempotency release failed", map[string]any{
				"payment-id": paymentID,
				"error":      rerr.Error(),
			})
		}
	}
	return outcome, err
}

func (p *PaymentProcessor) fetchAndIngest(ctx context.Context, source, paymentID string) (Outcome, error) {
	detail, err := p.Client.FetchDetail(ctx, paymentID)
	if err != nil {
		p.Metrics.IncFetchFailed()
		return "", err
	}

	res := p.Resolver.Resolve(detail)
	if res.SelfReported {
		p.Logger.Info("payer reconstructed", map[string]any{
			"payment-id": paymentID,
			"payer":      res.Name,
		})
	}

	return p.Ingestor.Ingest(ctx, source, res, detail)
}
