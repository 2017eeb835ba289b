package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
	StatusOther    Status = "other"
)

func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusApproved, StatusRejected, StatusPending:
		return Status(raw)
	}
	return StatusOther
}

// Announceable reports whether a first-time insert with this status is spoken.
func (s Status) Announceable() bool {
	return s == StatusApproved || s == StatusRejected
}

type Type string

const (
	TypeTransfer    Type = "transfer"
	TypeCreditCard  Type = "credit_card"
	TypeDebitCard   Type = "debit_card"
	TypePrepaidCard Type = "prepaid_card"
)

var methodTypes = map[string]Type{
	"account_money": TypeTransfer,
	"bank_transfer": TypeTransfer,
	"credit_card":   TypeCreditCard,
	"debit_card":    TypeDebitCard,
	"prepaid_card":  TypePrepaidCard,
}

// ClassifyMethod maps an upstream payment_type_id to a Type. Unknown codes
// are transfers.
func ClassifyMethod(code string) Type {
	if t, ok := methodTypes[code]; ok {
		return t
	}
	return TypeTransfer
}

var typeLabels = map[Type]string{
	TypeTransfer:    "Transferencia",
	TypeCreditCard:  "Tarjeta de credito",
	TypeDebitCard:   "Tarjeta de debito",
	TypePrepaidCard: "Tarjeta prepaga",
}

func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return typeLabels[ClassifyMethod(string(t))]
}

type Record struct {
	ExternalID     string
	PayerName      string
	PayerEmail     string
	Amount         decimal.Decimal
	Status         Status
	Type           Type
	Description    string
	DateCreated    string
	DateRegistered time.Time
}
