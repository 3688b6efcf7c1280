package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes    = 128 / 8
	tokenBytes   = 128 / 8
	derivedBytes = 128 / 8
)

type hasher struct {
	iterations int
}

// derive returns the hex PBKDF2-HMAC-SHA256 key of password over the
// textual salt.
func (h hasher) derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, derivedBytes, sha256.New)
	return hex.EncodeToString(key)
}

func (h hasher) verify(password, salt, stored string) bool {
	derived := h.derive(password, salt)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(stored)) == 1
}

func newSalt() (string, error) {
	return randomToken(saltBytes)
}

func newSessionToken() (string, error) {
	return randomToken(tokenBytes)
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
