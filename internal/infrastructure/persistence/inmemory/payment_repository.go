package inmemory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]payment.Record
	Now      func() time.Time
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]payment.Record),
		Now:      time.Now,
	}
}

func (r *PaymentRepository) SaveIfNotExist(_ context.Context, p *payment.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ExternalID]; exists {
		return false, nil
	}

	r.payments[p.ExternalID] = *p
	return true, nil
}

func (r *PaymentRepository) Exists(_ context.Context, externalID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.payments[externalID]
	return ok, nil
}

func (r *PaymentRepository) List(_ context.Context, f payment.Filter) (payment.Page, error) {
	f = f.Normalize()

	var matched []payment.Record
	for _, p := range r.sorted() {
		day := prefix(p.DateCreated, 10)
		if f.DateFrom != "" && day < f.DateFrom {
			continue
		}
		if f.DateTo != "" && day > f.DateTo {
			continue
		}
		if f.AmountMin != nil && p.Amount.LessThan(*f.AmountMin) {
			continue
		}
		if f.AmountMax != nil && p.Amount.GreaterThan(*f.AmountMax) {
			continue
		}
		matched = append(matched, p)
	}

	page := payment.Page{
		Total:      len(matched),
		TotalPages: payment.TotalPages(len(matched), f.PerPage),
	}
	if off := f.Offset(); off < len(matched) {
		page.Records = matched[off:min(off+f.PerPage, len(matched))]
	}
	return page, nil
}

func (r *PaymentRepository) Totals(_ context.Context, q payment.TotalsQuery) (payment.Totals, error) {
	now := r.Now()
	day := orDefault(q.Day, now.Format("2006-01-02"))
	month := orDefault(q.Month, now.Format("2006-01"))
	year := orDefault(q.Year, now.Format("2006"))

	var t payment.Totals
	for _, p := range r.sorted() {
		if p.Status != payment.StatusApproved {
			continue
		}
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

func (r *PaymentRepository) ByPeriod(_ context.Context, period payment.Period, value string) ([]payment.Record, error) {
	var out []payment.Record
	for _, p := range r.sorted() {
		if p.Status != payment.StatusApproved {
			continue
		}
		if prefix(p.DateCreated, period.PrefixLen()) == value {
			out = append(out, p)
		}
	}
	return out, nil
}

// Payments returns a copy of every stored record keyed by ExternalID.
func (r *PaymentRepository) Payments() map[string]payment.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.payments)
}

// sorted returns records newest first by DateCreated.
func (r *PaymentRepository) sorted() []payment.Record {
	r.mu.RLock()
	out := make([]payment.Record, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].DateCreated > out[j].DateCreated
	})
	return out
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var _ payment.Repository = (*PaymentRepository)(nil)

