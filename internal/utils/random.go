package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns a hex-encoded random string of 2*n characters.
func RandomToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
