package worker

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

var (
	testNames   = []string{"Juan Perez", "Maria Garcia", "Carlos Lopez", "Ana Martinez", "Pedro Sanchez"}
	testAmounts = []int64{500, 1200, 3500, 7800, 15000}
)

// RandomTestPayment builds a synthetic approved transfer used to check the
// announcement path end to end without the upstream.
func RandomTestPayment(now time.Time) *payment.Record {
	name := pick(testNames)
	first, _, _ := strings.Cut(name, " ")

	return &payment.Record{
		ExternalID:  generateTestPaymentID(),
		PayerName:   name,
		PayerEmail:  strings.ToLower(first) + "@test.com",
		Amount:      decimal.NewFromInt(pick(testAmounts)),
		Status:      payment.StatusApproved,
		Type:        payment.TypeTransfer,
		Description: "Pago de prueba",
		DateCreated: now.Format(time.RFC3339),
	}
}
