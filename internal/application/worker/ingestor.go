package worker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/resolver"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
)

type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeSkipped   Outcome = "skipped"
)

const (
	SourceWebhook = "webhook"
	SourcePolling = "polling"
	SourceTest    = "test"
)

type Announcer interface {
	Announce(name string, amount decimal.Decimal, rejected bool)
}

// genericNames are never spoken; the anonymous sentence is used instead.
var genericNames = map[string]bool{
	resolver.PlaceholderName: true,
	"Transferencia Recibida": true,
}

type Ingestor struct {
	Repo      payment.Repository
	Recorder  contracts.EventRecorder
	Announcer Announcer
	Logger    logging.Logger
	Metrics   *metrics.Counters
	Now       func() time.Time
}

func (i *Ingestor) Ingest(ctx context.Context, source string, res resolver.Resolution, d *payment.Detail) (Outcome, error) {
	if res.Discard {
		i.Metrics.IncDiscarded()
		i.Logger.Info("outbound transfer ignored", map[string]any{
			"payment-id": d.ExternalID(),
			"source":     source,
		})
		return OutcomeDiscarded, nil
	}

	rec := &payment.Record{
		ExternalID:  d.ExternalID(),
		PayerName:   res.Name,
		PayerEmail:  res.Email,
		Amount:      d.TransactionAmount,
		Status:      payment.ParseStatus(d.Status),
		Type:        res.Type,
		Description: d.Description,
		DateCreated: d.DateCreated,
	}
	return i.Store(ctx, source, rec)
}

// Store persists rec at most once. Only the call that actually inserts
// records the outbox event and announces.
func (i *Ingestor) Store(ctx context.Context, source string, rec *payment.Record) (Outcome, error) {
	if rec.DateRegistered.IsZero() {
		rec.DateRegistered = i.now()
	}

	inserted, err := i.Repo.SaveIfNotExist(ctx, rec)
	if err != nil {
		return "", err
	}

	if !inserted {
		i.Metrics.IncDuplicated()
		return OutcomeDuplicate, nil
	}

	i.Metrics.IncInserted()
	i.Logger.Info("payment stored", map[string]any{
		"payment-id": rec.ExternalID,
		"payer":      rec.PayerName,
		"amount":     rec.Amount.String(),
		"status":     rec.Status,
		"source":     source,
	})

	if i.Recorder != nil {
		if err := i.Recorder.Record(ctx, recordedEvent(source, rec)); err != nil {
			i.Logger.Error("outbox record failed", map[string]any{
				"payment-id": rec.ExternalID,
				"error":      err.Error(),
			})
		}
	}

	if rec.Status.Announceable() {
		name := rec.PayerName
		if genericNames[name] {
			name = ""
		}
		i.Announcer.Announce(name, rec.Amount, rec.Status == payment.StatusRejected)
	}

	return OutcomeInserted, nil
}

func (i *Ingestor) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func recordedEvent(source string, rec *payment.Record) event.Event {
	return event.Event{
		Type: event.PaymentRecorded,
		Payload: event.PaymentRecordedPayload{
			ExternalID:     rec.ExternalID,
			PayerName:      rec.PayerName,
			PayerEmail:     rec.PayerEmail,
			Amount:         rec.Amount.String(),
			Status:         string(rec.Status),
			PaymentType:    string(rec.Type),
			DateCreated:    rec.DateCreated,
			DateRegistered: rec.DateRegistered,
			Source:         source,
		},
	}
}
