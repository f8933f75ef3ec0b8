package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// generateOrderNumber produces the human-readable order reference printed on
// receipts and emails, alongside the uuid primary key.
func generateOrderNumber() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102-150405"), n.Int64())
}
