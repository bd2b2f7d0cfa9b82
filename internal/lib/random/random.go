package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const recoveryTokenBytes = 32

// NewRecoveryToken returns a URL-safe token string with 256 bits of
// entropy, suitable for one-time recovery links.
func NewRecoveryToken() (string, error) {
	const op = "random.NewRecoveryToken"

	buf := make([]byte, recoveryTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
