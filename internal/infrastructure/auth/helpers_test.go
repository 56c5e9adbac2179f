package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/renchester/blog-api/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestKeyPair(t *testing.T) KeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return KeyPair{Private: priv, Public: &priv.PublicKey}
}

func encodePrivatePKCS1(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
}

func encodePrivatePKCS8(t *testing.T, key any) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func encodePublicPKIX(t *testing.T, key any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(newTestKeyPair(t), newTestKeyPair(t), "blog-api-test", 10*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func testUser() *models.User {
	return &models.User{
		ID:               "5f0c6a52-6f7e-4c7a-9a57-1d2b8f1e0a11",
		Username:         "alice_writer",
		Email:            "alice@example.com",
		FirstName:        "Alice",
		LastName:         "Liddell",
		IsVerifiedAuthor: true,
	}
}
