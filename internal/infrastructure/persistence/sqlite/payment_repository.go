package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

const paymentColumns = `external_id, payer_name, payer_email, amount, description,
	status, payment_type, date_created, date_registered`

type PaymentRepository struct {
	db  *sql.DB
	Now func() time.Time
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db, Now: time.Now}
}

func (r *PaymentRepository) SaveIfNotExist(ctx context.Context, p *payment.Record) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ExternalID,
		p.PayerName,
		p.PayerEmail,
		p.Amount.String(),
		p.Description,
		string(p.Status),
		string(p.Type),
		p.DateCreated,
		p.DateRegistered.Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// 0 rows = already stored
	return affected == 1, nil
}

func (r *PaymentRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM payments WHERE external_id = ?`, externalID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *PaymentRepository) List(ctx context.Context, f payment.Filter) (payment.Page, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.DateFrom != "" {
		where = append(where, "substr(date_created, 1, 10) >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "substr(date_created, 1, 10) <= ?")
		args = append(args, f.DateTo)
	}
	if f.AmountMin != nil {
		where = append(where, "CAST(amount AS REAL) >= ?")
		args = append(args, f.AmountMin.InexactFloat64())
	}
	if f.AmountMax != nil {
		where = append(where, "CAST(amount AS REAL) <= ?")
		args = append(args, f.AmountMax.InexactFloat64())
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments`+clause, args...,
	).Scan(&total); err != nil {
		return payment.Page{}, fmt.Errorf("count payments: %w", err)
	}

	records, err := r.query(ctx,
		`SELECT `+paymentColumns+` FROM payments`+clause+
			` ORDER BY date_created DESC LIMIT ? OFFSET ?`,
		append(args, f.PerPage, f.Offset())...,
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

	records, err := r.query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = ? AND (substr(date_created, 1, 4) = ?
		   OR substr(date_created, 1, 7) = ? OR substr(date_created, 1, 10) = ?)`,
		string(payment.StatusApproved), year, month, day,
	)
	if err != nil {
		return payment.Totals{}, err
	}

	var t payment.Totals
	for _, p := range records {
		if strings.HasPrefix(p.DateCreated, day) {
			t.Day = t.Day.Add(p.Amount)
		}
		if strings.HasPrefix(p.DateCreated, month) {
			t.Month = t.Month.Add(p.Amount)
		}
		if strings.HasPrefix(p.DateCreated, year) {
			t.Year = t.Year.Add(p.Amount)
		}
	}
	return t, nil
}

func (r *PaymentRepository) ByPeriod(ctx context.Context, period payment.Period, value string) ([]payment.Record, error) {
	return r.query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = ? AND substr(date_created, 1, ?) = ?
		 ORDER BY date_created DESC`,
		string(payment.StatusApproved), period.PrefixLen(), value,
	)
}

func (r *PaymentRepository) query(ctx context.Context, q string, args ...any) ([]payment.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payment.Record
	for rows.Next() {
		var (
			p                        payment.Record
			amount, status, typ, reg string
		)
		if err := rows.Scan(
			&p.ExternalID,
			&p.PayerName,
			&p.PayerEmail,
			&amount,
			&p.Description,
			&status,
			&typ,
			&p.DateCreated,
			&reg,
		); err != nil {
			return nil, err
		}

		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("payment %s amount %q: %w", p.ExternalID, amount, err)
		}
		p.Status = payment.Status(status)
		p.Type = payment.Type(typ)
		p.DateRegistered, _ = time.Parse(time.RFC3339Nano, reg)

		records = append(records, p)
	}

	return records, rows.Err()
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var _ payment.Repository = (*PaymentRepository)(nil)
