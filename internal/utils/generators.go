package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OrderCodeLength is the fixed length of order codes handed to buyers and
// used as the gateway payment reference.
const OrderCodeLength = 12

// GenerateOrderCode returns a random uppercase alphanumeric order code.
func GenerateOrderCode() string {
	code := make([]byte, OrderCodeLength)
	max := big.NewInt(int64(len(orderCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a timestamp-derived index rather than panic
			code[i] = orderCodeAlphabet[time.Now().UnixNano()%int64(len(orderCodeAlphabet))]
			continue
		}
		code[i] = orderCodeAlphabet[n.Int64()]
	}
	return string(code)
}

// GenerateReference builds a prefixed reference for gateway-side records.
func GenerateReference(prefix string) string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("%s_%d_%06d", prefix, timestamp, randomNum.Int64())
}
