package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 64
	saltLength       = 32
)

// PasswordHasher derives salted PBKDF2-SHA512 digests. Callers must not log or
// persist plaintext passwords.
type PasswordHasher struct{}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

func (h *PasswordHasher) GenerateSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Derive returns the hex digest of password under salt.
func (h *PasswordHasher) Derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// Hash generates a fresh salt and returns it with the digest of password.
func (h *PasswordHasher) Hash(password string) (salt, digest string, err error) {
	salt, err = h.GenerateSalt()
	if err != nil {
		return "", "", err
	}
	return salt, h.Derive(password, salt), nil
}

// Verify reports whether password matches the stored digest. A mismatch is
// (false, nil); only malformed stored data returns ErrIntegrity.
func (h *PasswordHasher) Verify(password, digest, salt string) (bool, error) {
	stored, err := hex.DecodeString(digest)
	if err != nil || len(stored) != pbkdf2KeyLength || salt == "" {
		return false, pkgerrors.ErrIntegrity
	}
	candidate := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return subtle.ConstantTimeCompare(candidate, stored) == 1, nil
}
