package crypto

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordSaltLen  = 32
	passwordHashLen  = 32
	passwordIterCost = 10000
)

// HashPassword generates a random salt and derives a PBKDF2-HMAC-SHA256
// hash of password under it (32-byte salt, 10000 iterations, 32-byte
// output).
func HashPassword(password string) (salt, hash [32]byte, err error) {
	s, err := RandomBytes(passwordSaltLen)
	if err != nil {
		return salt, hash, err
	}
	copy(salt[:], s)
	h := pbkdf2.Key([]byte(password), salt[:], passwordIterCost, passwordHashLen, sha256.New)
	copy(hash[:], h)
	return salt, hash, nil
}

// VerifyPassword re-derives the PBKDF2 hash for password under salt and
// compares it against hash in constant time.
func VerifyPassword(password string, salt, hash [32]byte) bool {
	candidate := pbkdf2.Key([]byte(password), salt[:], passwordIterCost, passwordHashLen, sha256.New)
	return subtle.ConstantTimeCompare(candidate, hash[:]) == 1
}
