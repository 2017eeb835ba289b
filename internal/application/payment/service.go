package payment

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrMissingValue  = errors.New("missing period value")
	ErrNoWorkbook    = errors.New("no workbook writer configured")
)

// Service serves the read side: paged listings, totals and exports.
type Service struct {
	Repo      payment.Repository
	Workbooks contracts.WorkbookWriter
}

type Report struct {
	Page   payment.Page
	Totals payment.Totals
}

func (s *Service) Report(ctx context.Context, f payment.Filter, q payment.TotalsQuery) (Report, error) {
	page, err := s.Repo.List(ctx, f)
	if err != nil {
		return Report{}, fmt.Errorf("list payments: %w", err)
	}

	totals, err := s.Repo.Totals(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("payment totals: %w", err)
	}

	return Report{Page: page, Totals: totals}, nil
}

// Export writes the approved payments of one day, month or year as a
// spreadsheet and returns the suggested file name.
func (s *Service) Export(ctx context.Context, w io.Writer, period, value string) (string, error) {
	p, ok := payment.ParsePeriod(period)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if value == "" {
		return "", ErrMissingValue
	}
	if s.Workbooks == nil {
		return "", ErrNoWorkbook
	}

	records, err := s.Repo.ByPeriod(ctx, p, value)
	if err != nil {
		return "", fmt.Errorf("payments for %s %s: %w", p, value, err)
	}

	if err := s.Workbooks.Write(w, p, value, records); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}
	return s.Workbooks.FileName(p, value), nil
}
