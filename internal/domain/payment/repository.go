package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// SaveIfNotExist inserts r unless its ExternalID is already stored.
	// Concurrent calls for one ExternalID yield exactly one true.
	SaveIfNotExist(ctx context.Context, r *Record) (bool, error)
	Exists(ctx context.Context, externalID string) (bool, error)
	List(ctx context.Context, f Filter) (Page, error)
	Totals(ctx context.Context, q TotalsQuery) (Totals, error)
	ByPeriod(ctx context.Context, p Period, value string) ([]Record, error)
}

const DefaultPerPage = 15

type Filter struct {
	DateFrom  string
	DateTo    string
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	Page      int
	PerPage   int
}

func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

type Page struct {
	Records    []Record
	Total      int
	TotalPages int
}

func TotalPages(total, perPage int) int {
	return max(1, (total+perPage-1)/perPage)
}

// TotalsQuery selects the day (YYYY-MM-DD), month (YYYY-MM) and year (YYYY)
// to sum. Empty fields mean the current local ones.
type TotalsQuery struct {
	Day   string
	Month string
	Year  string
}

type Totals struct {
	Day   decimal.Decimal `json:"total_dia"`
	Month decimal.Decimal `json:"total_mes"`
	Year  decimal.Decimal `json:"total_anio"`
}

type Period string

const (
	PeriodDay   Period = "dia"
	PeriodMonth Period = "mes"
	PeriodYear  Period = "anio"
)

// PrefixLen is the number of leading DateCreated characters compared for p.
func (p Period) PrefixLen() int {
	switch p {
	case PeriodDay:
		return 10
	case PeriodMonth:
		return 7
	}
	return 4
}

func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return p, true
	}
	return "", false
}
