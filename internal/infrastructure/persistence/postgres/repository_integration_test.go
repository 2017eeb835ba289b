//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/postgres"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("payments"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool))
	return pool
}

func rec(id, created, amount string, status payment.Status) *payment.Record {
	return &payment.Record{
		ExternalID:     id,
		PayerName:      "Ana Gomez",
		Amount:         decimal.RequireFromString(amount),
		Status:         status,
		Type:           payment.TypeTransfer,
		DateCreated:    created,
		DateRegistered: time.Now(),
	}
}

func TestPaymentRepository_Postgres(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewPaymentRepository(pool)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.SaveIfNotExist(ctx, rec("p1", "2026-04-10T09:00:00.000-03:00", "1234.50", payment.StatusApproved))
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())

	_, err := repo.SaveIfNotExist(ctx, rec("p2", "2026-04-02T09:00:00.000-03:00", "100", payment.StatusApproved))
	require.NoError(t, err)
	_, err = repo.SaveIfNotExist(ctx, rec("p3", "2026-04-10T11:00:00.000-03:00", "50", payment.StatusRejected))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, "p1")
	require.NoError(t, err)
	require.True(t, exists)

	floor := decimal.NewFromInt(60)
	page, err := repo.List(ctx, payment.Filter{DateFrom: "2026-04-01", AmountMin: &floor})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "p1", page.Records[0].ExternalID)
	require.Equal(t, "1234.5", page.Records[0].Amount.String())

	totals, err := repo.Totals(ctx, payment.TotalsQuery{Day: "2026-04-10", Month: "2026-04", Year: "2026"})
	require.NoError(t, err)
	require.Equal(t, "1234.5", totals.Day.String())
	require.Equal(t, "1334.5", totals.Month.String())

	rows, err := repo.ByPeriod(ctx, payment.PeriodMonth, "2026-04")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestOutboxRepository_Postgres(t *testing.T) {
	pool := setupPool(t)
	repo := postgres.NewOutboxRepository(pool)
	ctx := context.Background()

	require.NoError(t, outbox.NewRecorder(repo).Record(ctx, event.Event{
		Type:    event.PaymentRecorded,
		Payload: event.PaymentRecordedPayload{ExternalID: "p1"},
	}))

	events, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, event.PaymentRecorded, events[0].Type)

	require.NoError(t, repo.MarkPublished(ctx, events[0].ID))

	events, err = repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}
