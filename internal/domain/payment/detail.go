package payment

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	OperationMoneyTransfer = "money_transfer"
	OperationAccountFund   = "account_fund"
)

// Detail is the upstream view of a single payment. Ids arrive as JSON numbers
// or strings, so they are kept loose and read through the accessor methods.
type Detail struct {
	ID                 any                 `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	OperationType      string              `json:"operation_type"`
	PaymentTypeID      string              `json:"payment_type_id"`
	PaymentMethodID    string              `json:"payment_method_id"`
	TransactionAmount  decimal.Decimal     `json:"transaction_amount"`
	DateCreated        string              `json:"date_created"`
	Description        string              `json:"description"`
	CollectorID        any                 `json:"collector_id"`
	Collector          *Party              `json:"collector"`
	Payer              *Party              `json:"payer"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction"`
	AdditionalInfo     *AdditionalInfo     `json:"additional_info"`

	Raw json.RawMessage `json:"-"`
}

type Party struct {
	ID        any    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (p *Party) IDString() string {
	if p == nil {
		return ""
	}
	return IDString(p.ID)
}

func (p *Party) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func (p *Party) EmailAddress() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Email)
}

type PointOfInteraction struct {
	Type            string           `json:"type"`
	SubType         string           `json:"sub_type"`
	TransactionData *TransactionData `json:"transaction_data"`
}

type TransactionData struct {
	E2EID         string    `json:"e2e_id"`
	TransactionID string    `json:"transaction_id"`
	BankInfo      *BankInfo `json:"bank_info"`
}

type BankInfo struct {
	Payer                  *BankParty `json:"payer"`
	Collector              *BankParty `json:"collector"`
	OriginBankID           any        `json:"origin_bank_id"`
	OriginWalletID         any        `json:"origin_wallet_id"`
	IsSameBankAccountOwner any        `json:"is_same_bank_account_owner"`
}

type BankParty struct {
	LongName  string `json:"long_name"`
	AccountID any    `json:"account_id"`
}

type AdditionalInfo struct {
	Payer *Party `json:"payer"`
}

func (d *Detail) ExternalID() string {
	return IDString(d.ID)
}

// CollectorIDString prefers the top level collector_id over collector.id.
func (d *Detail) CollectorIDString() string {
	if id := IDString(d.CollectorID); id != "" {
		return id
	}
	return d.Collector.IDString()
}

func (d *Detail) IsOutboundOperation() bool {
	return d.OperationType == OperationMoneyTransfer || d.OperationType == OperationAccountFund
}

func (d *Detail) BankPayerLongName() string {
	poi := d.PointOfInteraction
	if poi == nil || poi.TransactionData == nil || poi.TransactionData.BankInfo == nil || poi.TransactionData.BankInfo.Payer == nil {
		return ""
	}
	return strings.TrimSpace(poi.TransactionData.BankInfo.Payer.LongName)
}

func (d *Detail) AdditionalPayerName() string {
	if d.AdditionalInfo == nil {
		return ""
	}
	return d.AdditionalInfo.Payer.FullName()
}

// IDString normalizes a JSON id (number or string) to its decimal text.
func IDString(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}
