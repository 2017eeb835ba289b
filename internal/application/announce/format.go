package announce

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders amounts the way they are read aloud in es-AR:
// 15000 -> "15.000", 1234.5 -> "1.234,50".
func FormatAmount(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	if amount.IsInteger() {
		return sign + group(amount.String())
	}

	whole, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	return sign + group(whole) + "," + frac
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Message builds the sentence spoken for a payment. An empty name selects
// the anonymous variant.
func Message(name string, amount decimal.Decimal, rejected bool) string {
	amt := FormatAmount(amount)

	switch {
	case rejected && name != "":
		return fmt.Sprintf("Atención. Se rechazó un pago de %s por %s pesos", name, amt)
	case rejected:
		return fmt.Sprintf("Atención. Se rechazó un pago por %s pesos", amt)
	case name != "":
		return fmt.Sprintf("Se recibió una transferencia de %s por %s pesos", name, amt)
	}
	return fmt.Sprintf("Se recibió una transferencia por %s pesos", amt)
}
