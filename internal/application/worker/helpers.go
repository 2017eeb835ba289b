package worker

import (
	"fmt"
	"math/rand/v2"
)

func generateTestPaymentID() string {
	return fmt.Sprintf("TEST_%d", 100000+rand.IntN(900000))
}

func pick[T any](items []T) T {
	return items[rand.IntN(len(items))]
}
