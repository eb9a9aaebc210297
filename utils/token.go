package utils

import (
	"crypto/rand"
	"math/big"
)

// GenerateNumericCode returns a random code of n decimal digits.
func GenerateNumericCode(n int) (string, error) {
	const digits = "0123456789"
	max := big.NewInt(int64(len(digits)))

	code := make([]byte, n)
	for i := range code {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = digits[v.Int64()]
	}
	return string(code), nil
}
