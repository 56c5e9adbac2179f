package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyPair(t *testing.T) {
	pair := newTestKeyPair(t)
	privPEM := encodePrivatePKCS1(pair.Private)
	pubPEM := encodePublicPKIX(t, pair.Public)

	t.Run("Inline PEM", func(t *testing.T) {
		got, err := LoadKeyPair(privPEM, pubPEM)
		require.NoError(t, err)
		assert.True(t, got.Public.Equal(pair.Public))
	})

	t.Run("Escaped newlines", func(t *testing.T) {
		escaped := strings.ReplaceAll(privPEM, "\n", `\n`)
		got, err := LoadKeyPair(escaped, "")
		require.NoError(t, err)
		assert.True(t, got.Private.Equal(pair.Private))
	})

	t.Run("File path", func(t *testing.T) {
		dir := t.TempDir()
		privPath := filepath.Join(dir, "access.key")
		pubPath := filepath.Join(dir, "access.pub")
		require.NoError(t, os.WriteFile(privPath, []byte(encodePrivatePKCS8(t, pair.Private)), 0o600))
		require.NoError(t, os.WriteFile(pubPath, []byte(pubPEM), 0o600))

		got, err := LoadKeyPair(privPath, pubPath)
		require.NoError(t, err)
		assert.True(t, got.Public.Equal(pair.Public))
	})

	t.Run("Derived public key", func(t *testing.T) {
		got, err := LoadKeyPair(privPEM, "")
		require.NoError(t, err)
		assert.True(t, got.Public.Equal(pair.Public))
	})

	t.Run("Mismatched public key", func(t *testing.T) {
		other := newTestKeyPair(t)
		_, err := LoadKeyPair(privPEM, encodePublicPKIX(t, other.Public))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Empty private key", func(t *testing.T) {
		_, err := LoadKeyPair("", "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("Garbage PEM", func(t *testing.T) {
		_, err := LoadKeyPair("-----BEGIN nothing", "")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestParseKeys_RejectsNonRSA(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	_, err = ParsePrivateKey(encodePrivatePKCS8(t, ecKey))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParsePublicKey(encodePublicPKIX(t, &ecKey.PublicKey))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
