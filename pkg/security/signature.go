package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignSHA512 returns the lowercase hex HMAC-SHA512 of body keyed by secret.
func SignSHA512(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySHA512 checks a hex signature in constant time.
func VerifySHA512(body []byte, secret, signature string) bool {
	if secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) != sha512.Size {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// RandomReference returns prefix followed by 2*n random hex characters.
func RandomReference(prefix string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("reference length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}
