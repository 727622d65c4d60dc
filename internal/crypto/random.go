package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomBytes returns n cryptographically random bytes. It fails hard on
// underlying CSPRNG failure rather than returning partially-filled output.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("crypto: csprng read failed: %w", err)
	}
	return b, nil
}
