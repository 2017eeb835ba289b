package inmemory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/inmemory"
)

func record(id, date string, amount int64, status payment.Status) *payment.Record {
	return &payment.Record{
		ExternalID:  id,
		Amount:      decimal.NewFromInt(amount),
		Status:      status,
		DateCreated: date,
	}
}

func TestPaymentRepository_SaveIfNotExist_IsAtMostOnce(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	ctx := context.Background()

	ok, err := repo.SaveIfNotExist(ctx, record("1", "2026-01-01", 10, payment.StatusApproved))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.SaveIfNotExist(ctx, record("1", "2026-01-02", 99, payment.StatusRejected))
	require.NoError(t, err)
	require.False(t, ok)

	stored := repo.Payments()["1"]
	require.Equal(t, "10", stored.Amount.String())
}

func TestPaymentRepository_ConcurrentInsertsHaveOneWinner(t *testing.T) {
	repo := inmemory.NewPaymentRepository()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := repo.SaveIfNotExist(context.Background(), record("race", "2026-01-01", 1, payment.StatusApproved))
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Len(t, repo.Payments(), 1)
}

func TestPaymentRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	ctx := context.Background()
	for i, d := range []string{"2026-01-01T10:00:00", "2026-01-02T10:00:00", "2026-01-03T23:00:00", "2026-01-04T10:00:00"} {
		_, err := repo.SaveIfNotExist(ctx, record(d, d, int64(100*(i+1)), payment.StatusApproved))
		require.NoError(t, err)
	}

	floor := decimal.NewFromInt(150)
	page, err := repo.List(ctx, payment.Filter{DateFrom: "2026-01-02", DateTo: "2026-01-03", AmountMin: &floor})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "2026-01-03T23:00:00", page.Records[0].ExternalID)

	page, err = repo.List(ctx, payment.Filter{Page: 2, PerPage: 3})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Records, 1)
	require.Equal(t, "2026-01-01T10:00:00", page.Records[0].ExternalID)
}

func TestPaymentRepository_TotalsAndPeriodOnlyCountApproved(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	repo.Now = func() time.Time { return time.Date(2026, 5, 20, 12, 0, 0, 0, time.Local) }
	ctx := context.Background()

	_, _ = repo.SaveIfNotExist(ctx, record("a", "2026-05-20T09:00:00", 100, payment.StatusApproved))
	_, _ = repo.SaveIfNotExist(ctx, record("b", "2026-05-02T09:00:00", 50, payment.StatusApproved))
	_, _ = repo.SaveIfNotExist(ctx, record("c", "2026-01-02T09:00:00", 25, payment.StatusApproved))
	_, _ = repo.SaveIfNotExist(ctx, record("d", "2026-05-20T10:00:00", 999, payment.StatusRejected))

	totals, err := repo.Totals(ctx, payment.TotalsQuery{})
	require.NoError(t, err)
	require.Equal(t, "100", totals.Day.String())
	require.Equal(t, "150", totals.Month.String())
	require.Equal(t, "175", totals.Year.String())

	rows, err := repo.ByPeriod(ctx, payment.PeriodMonth, "2026-05")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "a", rows[0].ExternalID)
}
