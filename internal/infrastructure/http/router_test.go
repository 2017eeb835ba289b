package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/diagnostics"
	apppayment "github.com/rcarvalho-pb/payment_notifier-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/export"
	httpapi "github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/http"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/inmemory"
)

type noopLogger struct{}

func (n *noopLogger) Info(string, map[string]any)  {}
func (n *noopLogger) Error(string, map[string]any) {}

type submission struct {
	source, id string
}

type fakeSubmitter struct {
	mu   sync.Mutex
	subs []submission
}

func (f *fakeSubmitter) Submit(_ context.Context, source, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, submission{source, id})
}

type fakeStorer struct {
	storeFn func(ctx context.Context, source string, rec *payment.Record) (worker.Outcome, error)
}

func (f *fakeStorer) Store(ctx context.Context, source string, rec *payment.Record) (worker.Outcome, error) {
	return f.storeFn(ctx, source, rec)
}

type fakeInspector struct {
	inspectFn func(ctx context.Context, id string) (diagnostics.Report, error)
}

func (f *fakeInspector) Inspect(ctx context.Context, id string) (diagnostics.Report, error) {
	return f.inspectFn(ctx, id)
}

type fixture struct {
	router    http.Handler
	submitter *fakeSubmitter
	repo      *inmemory.PaymentRepository
	metrics   *metrics.Counters
	stored    []*payment.Record
}

func newFixture(t *testing.T, creds httpapi.Credentials) *fixture {
	t.Helper()

	f := &fixture{
		submitter: &fakeSubmitter{},
		repo:      inmemory.NewPaymentRepository(),
		metrics:   &metrics.Counters{},
	}
	f.repo.Now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local) }

	storer := &fakeStorer{storeFn: func(_ context.Context, source string, rec *payment.Record) (worker.Outcome, error) {
		require.Equal(t, worker.SourceTest, source)
		f.stored = append(f.stored, rec)
		return worker.OutcomeInserted, nil
	}}
	inspector := &fakeInspector{inspectFn: func(_ context.Context, id string) (diagnostics.Report, error) {
		if id == "missing" {
			return diagnostics.Report{}, errors.New("not found")
		}
		return diagnostics.Report{Note: "ok", Description: "desc " + id}, nil
	}}

	webhook := &httpapi.WebhookHandler{Dispatcher: f.submitter, Logger: &noopLogger{}, Metrics: f.metrics}
	dashboard := &httpapi.DashboardHandler{
		Reports:   &apppayment.Service{Repo: f.repo, Workbooks: export.Workbook{}},
		Ingestor:  storer,
		Inspector: inspector,
		Logger:    &noopLogger{},
		Metrics:   f.metrics,
	}
	f.router = httpapi.NewRouter(webhook, dashboard, creds)
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_QueryFormat(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	res := f.do(httptest.NewRequest(http.MethodPost, "/webhook?topic=payment&id=123", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "OK", res.Body.String())
	require.Equal(t, []submission{{worker.SourceWebhook, "123"}}, f.submitter.subs)
	require.Equal(t, uint64(1), f.metrics.Snapshot().NotificationsReceived)
}

func TestWebhook_JSONBodyWithNumericID(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	body := strings.NewReader(`{"type":"payment","data":{"id":987654321}}`)
	res := f.do(httptest.NewRequest(http.MethodPost, "/webhook", body))
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, []submission{{worker.SourceWebhook, "987654321"}}, f.submitter.subs)
}

func TestWebhook_IgnoresOtherTopicsAndMalformedBodies(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	cases := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/webhook?topic=merchant_order&id=1", nil),
		httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"payment","data":{}}`)),
		httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`not json`)),
		httptest.NewRequest(http.MethodGet, "/webhook", nil),
	}
	for _, req := range cases {
		res := f.do(req)
		require.Equal(t, http.StatusOK, res.Code)
		require.Equal(t, "OK", res.Body.String())
	}

	require.Empty(t, f.submitter.subs)
	require.Equal(t, uint64(len(cases)), f.metrics.Snapshot().NotificationsReceived)
}

func TestWebhook_OpenEvenWhenDashboardIsProtected(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{User: "admin", Password: "secret"})

	res := f.do(httptest.NewRequest(http.MethodGet, "/webhook?topic=payment&id=1", nil))
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(httptest.NewRequest(http.MethodGet, "/api/payments", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.SetBasicAuth("admin", "secret")
	res = f.do(req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestPayments_FiltersAndTotals(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})
	ctx := context.Background()

	for _, r := range []payment.Record{
		{ExternalID: "1", PayerName: "Ana", Amount: decimal.NewFromInt(100), Status: payment.StatusApproved, Type: payment.TypeTransfer, DateCreated: "2026-03-15T09:00:00"},
		{ExternalID: "2", PayerName: "Luis", Amount: decimal.NewFromInt(900), Status: payment.StatusApproved, Type: payment.TypeCreditCard, DateCreated: "2026-03-10T09:00:00"},
	} {
		_, err := f.repo.SaveIfNotExist(ctx, &r)
		require.NoError(t, err)
	}

	res := f.do(httptest.NewRequest(http.MethodGet, "/api/pagos?monto_max=500&page=abc", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Payments []map[string]any `json:"payments"`
		Totals   map[string]any   `json:"totals"`
		Page     int              `json:"page"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, 1, body.Page)
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Ana", body.Payments[0]["payer_name"])
	require.Equal(t, "Transferencia", body.Payments[0]["payment_type"])
	require.Equal(t, "100", body.Totals["total_dia"])
	require.Equal(t, "1000", body.Totals["total_mes"])

	res = f.do(httptest.NewRequest(http.MethodGet, "/api/payments?monto_min=abc", nil))
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestExport(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	res := f.do(httptest.NewRequest(http.MethodGet, "/api/export?periodo=mes&valor=2026-03", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Header().Get("Content-Disposition"), "ventas_mes_2026-03.xlsx")
	require.NotZero(t, res.Body.Len())

	res = f.do(httptest.NewRequest(http.MethodGet, "/api/exportar?periodo=dia", nil))
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(httptest.NewRequest(http.MethodGet, "/api/export?periodo=semana&valor=1", nil))
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestTestPayment(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	res := f.do(httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, f.stored, 1)
	require.True(t, strings.HasPrefix(f.stored[0].ExternalID, "TEST_"))
	require.Contains(t, res.Body.String(), "Pago simulado: "+f.stored[0].PayerName)
}

func TestDebugPayment(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})

	res := f.do(httptest.NewRequest(http.MethodGet, "/debug/payment/42", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"9_description": "desc 42"`)

	res = f.do(httptest.NewRequest(http.MethodGet, "/debug/payment/missing", nil))
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Contains(t, res.Body.String(), "No se pudo obtener el pago")
}

func TestMetricsAndHealth(t *testing.T) {
	f := newFixture(t, httpapi.Credentials{})
	f.metrics.IncInserted()

	res := f.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"payments_inserted": 1`)

	res = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
}
