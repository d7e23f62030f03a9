package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is deliberately above the library default; login latency is an
// acceptable price for slower offline cracking.
const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// A malformed stored hash verifies false rather than surfacing an error:
// callers treat every non-match identically.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
