package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/outbox"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Save(ctx context.Context, evt outbox.OutboxEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, traceparent, published, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5)`,
		evt.ID, string(evt.Type), evt.Payload, evt.Traceparent, evt.CreatedAt.UTC(),
	)
	return err
}

func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, event_type, payload, traceparent, published, created_at
		 FROM outbox_events
		 WHERE NOT published
		 ORDER BY created_at, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.OutboxEvent, error) {
		var (
			evt outbox.OutboxEvent
			typ string
		)
		err := row.Scan(&evt.ID, &typ, &evt.Payload, &evt.Traceparent, &evt.Published, &evt.CreatedAt)
		evt.Type = event.Type(typ)
		return evt, err
	})
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE outbox_events SET published = TRUE WHERE id = $1`, id)
	return err
}

var _ outbox.Repository = (*OutboxRepository)(nil)
