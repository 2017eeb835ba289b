package resolver

import (
	"strings"
	"unicode"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

// PlaceholderName is stored when no payer name can be recovered.
const PlaceholderName = "Cliente"

type Resolution struct {
	// Discard marks a transfer sent by the account to someone else.
	Discard bool         `json:"discard"`
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Type    payment.Type `json:"type"`
	// SelfReported is set when the upstream payer fields described the
	// operating account and the payer was reconstructed.
	SelfReported bool `json:"self_reported"`
}

type Resolver struct {
	Self payment.Identity
}

func New(self payment.Identity) *Resolver {
	return &Resolver{Self: self}
}

func (r *Resolver) Resolve(d *payment.Detail) Resolution {
	if r.isForeignOutbound(d) {
		return Resolution{Discard: true}
	}

	res := Resolution{Type: payment.ClassifyMethod(d.PaymentTypeID)}

	payerID := d.Payer.IDString()
	payerName := d.Payer.FullName()
	payerEmail := d.Payer.EmailAddress()

	if r.Self.IsID(payerID) || r.Self.IsName(payerName) || r.Self.IsEmail(payerEmail) {
		res.SelfReported = true
		res.Name, res.Email = r.reconstruct(d, payerEmail)
	} else {
		res.Name, res.Email = payerName, payerEmail
		if res.Name == "" && payerEmail != "" {
			res.Name = NameFromEmail(payerEmail)
		}
	}

	if res.Name == "" {
		res.Name = PlaceholderName
	}
	return res
}

func (r *Resolver) isForeignOutbound(d *payment.Detail) bool {
	if !d.IsOutboundOperation() || r.Self.ID == "" {
		return false
	}
	collector := d.CollectorIDString()
	return collector != "" && collector != r.Self.ID
}

// reconstruct recovers the real payer when the upstream echoed the
// operating account in the payer fields.
func (r *Resolver) reconstruct(d *payment.Detail, payerEmail string) (name, email string) {
	if n := d.BankPayerLongName(); n != "" && !strings.EqualFold(n, r.Self.Name) {
		name = n
	}

	if name == "" {
		if n := d.AdditionalPayerName(); n != "" && !strings.EqualFold(n, r.Self.Name) {
			name = n
		}
	}

	if payerEmail != "" && !strings.EqualFold(payerEmail, r.Self.Email) {
		email = payerEmail
		if name == "" {
			name = NameFromEmail(payerEmail)
		}
	}
	return name, email
}

func allowedRune(r rune) bool {
	if r == ' ' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
		return true
	}
	return strings.ContainsRune("áéíóúñÁÉÍÓÚÑ", r)
}

// NameFromEmail turns "juan_perez@mail.com" into "Juan Perez". It returns
// "" when nothing readable is left.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer("_", " ", ".", " ").Replace(local)

	var b strings.Builder
	for _, r := range local {
		if allowedRune(r) {
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
