package payment_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apppayment "github.com/rcarvalho-pb/payment_notifier-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/inmemory"
)

type captureLogger struct {
	infos []map[string]any
}

func (c *captureLogger) Info(_ string, f map[string]any) { c.infos = append(c.infos, f) }
func (c *captureLogger) Error(string, map[string]any)    {}

func seededRepo(t *testing.T) *inmemory.PaymentRepository {
	t.Helper()

	repo := inmemory.NewPaymentRepository()
	repo.Now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local) }

	for _, r := range []payment.Record{
		{ExternalID: "1", Amount: decimal.NewFromInt(100), Status: payment.StatusApproved, DateCreated: "2026-03-15T09:00:00"},
		{ExternalID: "2", Amount: decimal.NewFromInt(50), Status: payment.StatusApproved, DateCreated: "2026-03-02T09:00:00"},
		{ExternalID: "3", Amount: decimal.NewFromInt(70), Status: payment.StatusRejected, DateCreated: "2026-03-15T10:00:00"},
	} {
		_, err := repo.SaveIfNotExist(context.Background(), &r)
		require.NoError(t, err)
	}
	return repo
}

func TestService_Report(t *testing.T) {
	svc := &apppayment.Service{Repo: seededRepo(t)}

	report, err := svc.Report(context.Background(), payment.Filter{}, payment.TotalsQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, report.Page.Total)
	require.Equal(t, "100", report.Totals.Day.String())
	require.Equal(t, "150", report.Totals.Month.String())
}

type fakeWorkbook struct {
	writeFn func(w io.Writer, period payment.Period, value string, records []payment.Record) error
}

func (f *fakeWorkbook) Write(w io.Writer, period payment.Period, value string, records []payment.Record) error {
	return f.writeFn(w, period, value, records)
}

func (f *fakeWorkbook) FileName(period payment.Period, value string) string {
	return "ventas_" + string(period) + "_" + value + ".xlsx"
}

func TestService_Export(t *testing.T) {
	var got []string
	book := &fakeWorkbook{writeFn: func(w io.Writer, period payment.Period, value string, records []payment.Record) error {
		require.Equal(t, payment.PeriodMonth, period)
		for _, r := range records {
			got = append(got, r.ExternalID)
		}
		_, err := io.WriteString(w, "xlsx")
		return err
	}}
	svc := &apppayment.Service{Repo: seededRepo(t), Workbooks: book}

	var buf bytes.Buffer
	name, err := svc.Export(context.Background(), &buf, "mes", "2026-03")
	require.NoError(t, err)
	require.Equal(t, "ventas_mes_2026-03.xlsx", name)
	require.Equal(t, "xlsx", buf.String())
	require.ElementsMatch(t, []string{"1", "2"}, got)

	_, err = svc.Export(context.Background(), &buf, "semana", "2026-03")
	require.True(t, errors.Is(err, apppayment.ErrInvalidPeriod))

	_, err = svc.Export(context.Background(), &buf, "dia", "")
	require.ErrorIs(t, err, apppayment.ErrMissingValue)
}

func TestService_ExportPropagatesWriterFailure(t *testing.T) {
	book := &fakeWorkbook{writeFn: func(io.Writer, payment.Period, string, []payment.Record) error {
		return errors.New("disk full")
	}}
	svc := &apppayment.Service{Repo: seededRepo(t), Workbooks: book}

	_, err := svc.Export(context.Background(), io.Discard, "anio", "2026")
	require.ErrorContains(t, err, "disk full")

	svc.Workbooks = nil
	_, err = svc.Export(context.Background(), io.Discard, "anio", "2026")
	require.ErrorIs(t, err, apppayment.ErrNoWorkbook)
}

func TestRecordedEventHandler(t *testing.T) {
	log := &captureLogger{}
	h := &apppayment.RecordedEventHandler{Logger: log}

	err := h.Handle(context.Background(), event.Event{
		Type:    event.PaymentRecorded,
		Payload: event.PaymentRecordedPayload{ExternalID: "9", Amount: "10"},
	})
	require.NoError(t, err)
	require.Len(t, log.infos, 1)
	require.Equal(t, "9", log.infos[0]["payment-id"])

	err = h.Handle(context.Background(), event.Event{Type: event.PaymentRecorded, Payload: "bogus"})
	require.Error(t, err)
}
