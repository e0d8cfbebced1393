// Package security provides password hashing for the authentication API.
package security

import (
	"github.com/matthewhartstonge/argon2"
)

// Hasher hashes and verifies passwords using argon2id. Passwords are stored
// only as salted one-way hashes, never as plaintext.
type Hasher struct {
	config argon2.Config
}

// NewHasher creates a Hasher with the recommended argon2id defaults.
func NewHasher() *Hasher {
	return &Hasher{config: argon2.DefaultConfig()}
}

// Hash derives a salted, encoded hash of the given password.
func (h *Hasher) Hash(password string) (string, error) {
	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Verify reports whether password matches the encoded hash.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encoded))
}
