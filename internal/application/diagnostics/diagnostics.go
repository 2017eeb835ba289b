package diagnostics

import (
	"context"
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/application/resolver"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

const note = "Campos relevantes para identificar al pagador real"

// Report lists the parts of an upstream payment that decide who paid,
// next to what the resolver concluded and the raw document.
type Report struct {
	Note               string              `json:"_diagnostico"`
	Payer              map[string]any      `json:"1_payer"`
	Collector          map[string]any      `json:"2_collector"`
	BankPayer          any                 `json:"3_bank_info_payer"`
	BankCollector      any                 `json:"4_bank_info_collector"`
	BankExtras         map[string]any      `json:"5_bank_info_extras"`
	PointOfInteraction map[string]any      `json:"6_point_of_interaction"`
	AdditionalPayer    any                 `json:"7_additional_info_payer"`
	Metadata           any                 `json:"8_metadata"`
	Description        any                 `json:"9_description"`
	OperationType      any                 `json:"10_operation_type"`
	PaymentMethod      any                 `json:"11_payment_method"`
	PaymentType        any                 `json:"12_payment_type"`
	Resolution         resolver.Resolution `json:"resolution"`
	Raw                json.RawMessage     `json:"raw"`
}

func Build(d *payment.Detail, res resolver.Resolution) (Report, error) {
	raw := map[string]any{}
	if len(d.Raw) > 0 {
		if err := json.Unmarshal(d.Raw, &raw); err != nil {
			return Report{}, err
		}
	}

	payer := cast.ToStringMap(raw["payer"])
	poi := cast.ToStringMap(raw["point_of_interaction"])
	td := cast.ToStringMap(poi["transaction_data"])
	bank := cast.ToStringMap(td["bank_info"])
	additional := cast.ToStringMap(raw["additional_info"])

	return Report{
		Note: note,
		Payer: map[string]any{
			"id":             payer["id"],
			"first_name":     payer["first_name"],
			"last_name":      payer["last_name"],
			"email":          payer["email"],
			"identification": payer["identification"],
			"operator_id":    payer["operator_id"],
		},
		Collector: map[string]any{
			"id":            raw["collector_id"],
			"collector_obj": raw["collector"],
		},
		BankPayer:     bank["payer"],
		BankCollector: bank["collector"],
		BankExtras: map[string]any{
			"origin_bank_id":             bank["origin_bank_id"],
			"origin_wallet_id":           bank["origin_wallet_id"],
			"is_same_bank_account_owner": bank["is_same_bank_account_owner"],
		},
		PointOfInteraction: map[string]any{
			"type":                            poi["type"],
			"sub_type":                        poi["sub_type"],
			"transaction_data_e2e_id":         td["e2e_id"],
			"transaction_data_transaction_id": td["transaction_id"],
		},
		AdditionalPayer: additional["payer"],
		Metadata:        raw["metadata"],
		Description:     raw["description"],
		OperationType:   raw["operation_type"],
		PaymentMethod:   raw["payment_method_id"],
		PaymentType:     raw["payment_type_id"],
		Resolution:      res,
		Raw:             d.Raw,
	}, nil
}

type DetailFetcher interface {
	FetchDetail(ctx context.Context, paymentID string) (*payment.Detail, error)
}

// Inspector fetches a payment and explains how its payer was identified.
// Nothing is stored.
type Inspector struct {
	Client   DetailFetcher
	Resolver *resolver.Resolver
}

func (i *Inspector) Inspect(ctx context.Context, paymentID string) (Report, error) {
	d, err := i.Client.FetchDetail(ctx, paymentID)
	if err != nil {
		return Report{}, err
	}
	return Build(d, i.Resolver.Resolve(d))
}
