package event

import "time"

type PaymentRecordedPayload struct {
	ExternalID     string    `json:"external_id"`
	PayerName      string    `json:"payer_name"`
	PayerEmail     string    `json:"payer_email"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	PaymentType    string    `json:"payment_type"`
	DateCreated    string    `json:"date_created"`
	DateRegistered time.Time `json:"date_registered"`
	Source         string    `json:"source"`
}
