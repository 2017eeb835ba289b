package worker_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/mercadopago"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		traceparent TEXT NOT NULL DEFAULT '',
		published INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	`

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

type noopLogger struct{}

func (n *noopLogger) Info(string, map[string]any)  {}
func (n *noopLogger) Error(string, map[string]any) {}

type fakeRecorder struct {
	recordFn func(ctx context.Context, evt event.Event) error
}

func (f *fakeRecorder) Record(ctx context.Context, evt event.Event) error {
	return f.recordFn(ctx, evt)
}

type announcement struct {
	name     string
	amount   string
	rejected bool
}

type fakeAnnouncer struct {
	mu    sync.Mutex
	calls []announcement
}

func (f *fakeAnnouncer) Announce(name string, amount decimal.Decimal, rejected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, announcement{name, amount.String(), rejected})
}

func (f *fakeAnnouncer) Calls() []announcement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]announcement(nil), f.calls...)
}

type fakeFetcher struct {
	fetchFn func(ctx context.Context, id string) (*payment.Detail, error)
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, id string) (*payment.Detail, error) {
	return f.fetchFn(ctx, id)
}

type fakeGuard struct {
	claimFn   func(ctx context.Context, id string) (bool, error)
	releaseFn func(ctx context.Context, id string) error
}

func (f *fakeGuard) Claim(ctx context.Context, id string) (bool, error) {
	return f.claimFn(ctx, id)
}

func (f *fakeGuard) Release(ctx context.Context, id string) error {
	return f.releaseFn(ctx, id)
}

type fakeProcessor struct {
	processFn func(ctx context.Context, source, id string) (worker.Outcome, error)
}

func (f *fakeProcessor) Process(ctx context.Context, source, id string) (worker.Outcome, error) {
	return f.processFn(ctx, source, id)
}

type fakeSearcher struct {
	searchFn func(ctx context.Context, q mercadopago.SearchQuery) (mercadopago.SearchResult, error)
}

func (f *fakeSearcher) Search(ctx context.Context, q mercadopago.SearchQuery) (mercadopago.SearchResult, error) {
	return f.searchFn(ctx, q)
}

func approvedDetail(id string, amount int64, first, last, email string) *payment.Detail {
	return &payment.Detail{
		ID:                id,
		Status:            "approved",
		PaymentTypeID:     "account_money",
		TransactionAmount: decimal.NewFromInt(amount),
		DateCreated:       "2026-03-15T10:00:00.000-03:00",
		Payer:             &payment.Party{FirstName: first, LastName: last, Email: email},
	}
}
