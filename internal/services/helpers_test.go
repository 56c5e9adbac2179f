package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/renchester/blog-api/internal/infrastructure/auth"
	"github.com/renchester/blog-api/internal/infrastructure/policy"
	"github.com/renchester/blog-api/internal/models"
	"github.com/renchester/blog-api/internal/repository/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTopic = "auth-events"

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Send(ctx context.Context, topic string, key string, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func (m *mockProducer) Close() error {
	return m.Called().Error(0)
}

func newMockProducer() *mockProducer {
	p := &mockProducer{}
	p.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return p
}

// eventOfType matches a Kafka payload carrying the given event type.
func eventOfType(eventType models.EventType) interface{} {
	return mock.MatchedBy(func(value []byte) bool {
		var event models.AuthEvent
		return json.Unmarshal(value, &event) == nil && event.Type == eventType
	})
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *mockCache) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

func newKeyPair(t *testing.T) auth.KeyPair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return auth.KeyPair{Private: priv, Public: &priv.PublicKey}
}

type fixture struct {
	db       *memory.DB
	hasher   *auth.PasswordHasher
	issuer   *auth.JWTService
	access   auth.KeyPair
	refresh  auth.KeyPair
	producer *mockProducer
	sessions *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       memory.New(),
		hasher:   auth.NewPasswordHasher(),
		access:   newKeyPair(t),
		refresh:  newKeyPair(t),
		producer: newMockProducer(),
	}
	f.issuer = f.newIssuer(t, 30*24*time.Hour)
	f.sessions = NewSessionService(f.db.Users(), f.db.Tokens(), f.hasher, f.issuer, f.producer, testTopic)
	return f
}

// newIssuer shares the fixture's keys but uses its own refresh lifetime.
func (f *fixture) newIssuer(t *testing.T, refreshTTL time.Duration) *auth.JWTService {
	t.Helper()
	issuer, err := auth.NewJWTService(f.access, f.refresh, "blog-api-test", 10*time.Minute, refreshTTL)
	require.NoError(t, err)
	return issuer
}

func (f *fixture) createUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	salt, digest, err := f.hasher.Hash(password)
	require.NoError(t, err)
	user := &models.User{
		Username:  username,
		Email:     email,
		Salt:      salt,
		Hash:      digest,
		FirstName: "Test",
		LastName:  "User",
	}
	require.NoError(t, f.db.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) tokensOf(t *testing.T, id string) []string {
	t.Helper()
	user, err := f.db.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user.Tokens
}

func newAuthorizer(t *testing.T) policy.Authorizer {
	t.Helper()
	authz, err := policy.NewOPAAuthorizer(context.Background(), "")
	require.NoError(t, err)
	return authz
}
