package event

type Type string

const (
	PaymentRecorded Type = "PAYMENT_RECORDED"
)

type Event struct {
	Type    Type
	Payload any
}
