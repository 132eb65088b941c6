package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVerificationCode generates a cryptographically secure 5-digit
// verification code (10000-99999)
func GenerateVerificationCode() (string, error) {
	// 90000 possible codes starting at 10000
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return fmt.Sprintf("%05d", n.Int64()+10000), nil
}
