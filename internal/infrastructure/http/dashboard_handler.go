package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/diagnostics"
	apppayment "github.com/rcarvalho-pb/payment_notifier-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/worker"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/export"
)

type TestStorer interface {
	Store(ctx context.Context, source string, rec *payment.Record) (worker.Outcome, error)
}

type Inspector interface {
	Inspect(ctx context.Context, paymentID string) (diagnostics.Report, error)
}

type DashboardHandler struct {
	Reports   *apppayment.Service
	Ingestor  TestStorer
	Inspector Inspector
	Logger    logging.Logger
	Metrics   *metrics.Counters
	Now       func() time.Time
}

type paymentView struct {
	ExternalID     string          `json:"mp_payment_id"`
	PayerName      string          `json:"payer_name"`
	PayerEmail     string          `json:"payer_email"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Status         payment.Status  `json:"status"`
	PaymentType    string          `json:"payment_type"`
	DateCreated    string          `json:"date_created"`
	DateRegistered time.Time       `json:"date_registered"`
}

type paymentsResponse struct {
	Payments   []paymentView  `json:"payments"`
	Totals     payment.Totals `json:"totals"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
}

func (h *DashboardHandler) Payments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := payment.Filter{
		DateFrom: strings.TrimSpace(q.Get("fecha_desde")),
		DateTo:   strings.TrimSpace(q.Get("fecha_hasta")),
		Page:     cast.ToInt(q.Get("page")),
	}

	var err error
	if filter.AmountMin, err = amountParam(q.Get("monto_min")); err != nil {
		http.Error(w, "monto_min invalido", http.StatusBadRequest)
		return
	}
	if filter.AmountMax, err = amountParam(q.Get("monto_max")); err != nil {
		http.Error(w, "monto_max invalido", http.StatusBadRequest)
		return
	}
	filter = filter.Normalize()

	report, err := h.Reports.Report(r.Context(), filter, payment.TotalsQuery{
		Day:   q.Get("totals_dia"),
		Month: q.Get("totals_mes"),
		Year:  q.Get("totals_anio"),
	})
	if err != nil {
		h.Logger.Error("payments report failed", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := paymentsResponse{
		Payments:   make([]paymentView, 0, len(report.Page.Records)),
		Totals:     report.Totals,
		Page:       filter.Page,
		TotalPages: report.Page.TotalPages,
		Total:      report.Page.Total,
	}
	for _, rec := range report.Page.Records {
		resp.Payments = append(resp.Payments, paymentView{
			ExternalID:     rec.ExternalID,
			PayerName:      rec.PayerName,
			PayerEmail:     rec.PayerEmail,
			Amount:         rec.Amount,
			Description:    rec.Description,
			Status:         rec.Status,
			PaymentType:    rec.Type.Label(),
			DateCreated:    rec.DateCreated,
			DateRegistered: rec.DateRegistered,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("periodo")
	if period == "" {
		period = string(payment.PeriodDay)
	}

	var buf bytes.Buffer
	name, err := h.Reports.Export(r.Context(), &buf, period, r.URL.Query().Get("valor"))
	switch {
	case errors.Is(err, apppayment.ErrMissingValue):
		http.Error(w, "Falta el parametro 'valor'", http.StatusBadRequest)
		return
	case errors.Is(err, apppayment.ErrInvalidPeriod):
		http.Error(w, "Periodo invalido", http.StatusBadRequest)
		return
	case err != nil:
		h.Logger.Error("export failed", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	_, _ = buf.WriteTo(w)
}

// TestPayment stores a synthetic payment and announces it, exercising the
// pipeline without the upstream.
func (h *DashboardHandler) TestPayment(w http.ResponseWriter, r *http.Request) {
	rec := worker.RandomTestPayment(h.now())

	if _, err := h.Ingestor.Store(r.Context(), worker.SourceTest, rec); err != nil {
		h.Logger.Error("test payment failed", map[string]any{"error": err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Pago simulado: %s - $%s", rec.PayerName, rec.Amount.String())
}

func (h *DashboardHandler) DebugPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.Inspector.Inspect(r.Context(), id)
	if err != nil {
		h.Logger.Error("debug fetch failed", map[string]any{
			"payment-id": id,
			"error":      err.Error(),
		})
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No se pudo obtener el pago"})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) MetricsSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Metrics.Snapshot())
}

func (h *DashboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func amountParam(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
