package random

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Random generates identifiers and secrets that can be mocked for testing
type Random interface {
	// UUID returns a fresh random (version 4) UUID string
	UUID() string

	// Token returns an unguessable URL-safe token built from n random bytes
	Token(n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// UUID returns a random UUID
func (r *CryptoRandom) UUID() string {
	return uuid.NewString()
}

// Token returns a base64url token from n bytes of crypto/rand
func (r *CryptoRandom) Token(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
