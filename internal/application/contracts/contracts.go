package contracts

import (
	"context"
	"io"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

type EventRecorder interface {
	Record(ctx context.Context, evt event.Event) error
}

// WorkbookWriter renders the records of one period as a spreadsheet.
type WorkbookWriter interface {
	Write(w io.Writer, period payment.Period, value string, records []payment.Record) error
	FileName(period payment.Period, value string) string
}
