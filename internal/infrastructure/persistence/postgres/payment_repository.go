package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

const selectPayments = `SELECT external_id, payer_name, payer_email, amount::text, description,
	status, payment_type, date_created, date_registered FROM payments`

type PaymentRepository struct {
	pool *pgxpool.Pool
	Now  func() time.Time
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool, Now: time.Now}
}

func (r *PaymentRepository) SaveIfNotExist(ctx context.Context, p *payment.Record) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO payments (external_id, payer_name, payer_email, amount, description,
			status, payment_type, date_created, date_registered)
		 VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9)
		 ON CONFLICT (external_id) DO NOTHING`,
		p.ExternalID,
		p.PayerName,
		p.PayerEmail,
		p.Amount.String(),
		p.Description,
		string(p.Status),
		string(p.Type),
		p.DateCreated,
		p.DateRegistered.UTC(),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE external_id = $1)`, externalID,
	).Scan(&exists)
	return exists, err
}

func (r *PaymentRepository) List(ctx context.Context, f payment.Filter) (payment.Page, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DateFrom != "" {
		where = append(where, "left(date_created, 10) >= "+arg(f.DateFrom))
	}
	if f.DateTo != "" {
		where = append(where, "left(date_created, 10) <= "+arg(f.DateTo))
	}
	if f.AmountMin != nil {
		where = append(where, "amount >= "+arg(f.AmountMin.String())+"::text::numeric")
	}
	if f.AmountMax != nil {
		where = append(where, "amount <= "+arg(f.AmountMax.String())+"::text::numeric")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+clause, args...).Scan(&total); err != nil {
		return payment.Page{}, fmt.Errorf("count payments: %w", err)
	}

	limit, offset := arg(f.PerPage), arg(f.Offset())
	records, err := r.query(ctx,
		selectPayments+clause+` ORDER BY date_created DESC LIMIT `+limit+` OFFSET `+offset,
		args...,
	)
	if err != nil {
		return payment.Page{}, err
	}

	return payment.Page{
		Records:    records,
		Total:      total,
		TotalPages: payment.TotalPages(total, f.PerPage),
	}, nil
}

func (r *PaymentRepository) Totals(ctx context.Context, q payment.TotalsQuery) (payment.Totals, error) {
	now := r.Now()
	day := orDefault(q.Day, now.Format("2006-01-02"))
	month := orDefault(q.Month, now.Format("2006-01"))
	year := orDefault(q.Year, now.Format("2006"))

	var d, m, y string
	err := r.pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE left(date_created, 10) = $2), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE left(date_created, 7) = $3), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE left(date_created, 4) = $4), 0)::text
		 FROM payments WHERE status = $1`,
		string(payment.StatusApproved), day, month, year,
	).Scan(&d, &m, &y)
	if err != nil {
		return payment.Totals{}, err
	}

	var t payment.Totals
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{{&t.Day, d}, {&t.Month, m}, {&t.Year, y}} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return payment.Totals{}, err
		}
	}
	return t, nil
}

func (r *PaymentRepository) ByPeriod(ctx context.Context, period payment.Period, value string) ([]payment.Record, error) {
	return r.query(ctx,
		selectPayments+` WHERE status = $1 AND left(date_created, $2) = $3 ORDER BY date_created DESC`,
		string(payment.StatusApproved), period.PrefixLen(), value,
	)
}

func (r *PaymentRepository) query(ctx context.Context, q string, args ...any) ([]payment.Record, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Record, error) {
		var (
			p                   payment.Record
			amount, status, typ string
		)
		if err := row.Scan(
			&p.ExternalID,
			&p.PayerName,
			&p.PayerEmail,
			&amount,
			&p.Description,
			&status,
			&typ,
			&p.DateCreated,
			&p.DateRegistered,
		); err != nil {
			return p, err
		}

		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return p, fmt.Errorf("payment %s amount %q: %w", p.ExternalID, amount, err)
		}
		p.Amount = amt
		p.Status = payment.Status(status)
		p.Type = payment.Type(typ)
		return p, nil
	})
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var _ payment.Repository = (*PaymentRepository)(nil)
