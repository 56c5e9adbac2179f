package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/renchester/blog-api/internal/infrastructure/auth"
	"github.com/renchester/blog-api/internal/infrastructure/kafka"
	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"github.com/renchester/blog-api/internal/models"
	"github.com/renchester/blog-api/internal/repository"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type CredentialVerifier interface {
	Verify(password, digest, salt string) (bool, error)
}

type TokenIssuer interface {
	IssueAccess(user *models.User, flag models.TokenFlag) (string, error)
	IssueRefresh(user *models.User) (string, error)
	ParseRefresh(token string, ignoreExpiry bool) (*models.RefreshClaims, error)
}

type LoginResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

// SessionService drives login, refresh and logout. All session state lives in
// the TokenStore.
type SessionService struct {
	users    repository.UserRepository
	tokens   repository.TokenStore
	verifier CredentialVerifier
	issuer   TokenIssuer
	events   *eventPublisher
	nowFunc  func() time.Time
}

func NewSessionService(
	users repository.UserRepository,
	tokens repository.TokenStore,
	verifier CredentialVerifier,
	issuer TokenIssuer,
	producer kafka.KafkaProducer,
	topic string,
) *SessionService {
	return &SessionService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		issuer:   issuer,
		events:   newEventPublisher(producer, topic),
		nowFunc:  time.Now,
	}
}

type loginState struct {
	identifier string
	password   string
	user       *models.User
	access     string
	refresh    string
}

func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	ctx, span := otel.Tracer("session-service").Start(ctx, "Login")
	defer span.End()

	state := &loginState{identifier: identifier, password: password}
	err := runStages(ctx, "login", state,
		stage[loginState]{"lookup-user", s.lookupUser},
		stage[loginState]{"verify-credentials", s.verifyCredentials},
		stage[loginState]{"issue-tokens", s.issueTokens},
		stage[loginState]{"record-refresh", s.recordRefresh},
	)
	if err != nil {
		s.fail(ctx, span, "login", err)
		return nil, err
	}

	observability.SessionOutcomes.WithLabelValues("login", "success").Inc()
	observability.WithContext(ctx).Info("user logged in", "user_id", state.user.ID)
	s.events.publish(ctx, models.EventUserLoggedIn, state.user)

	return &LoginResult{
		User:         state.user.Public(),
		AccessToken:  state.access,
		RefreshToken: state.refresh,
	}, nil
}

func (s *SessionService) lookupUser(ctx context.Context, st *loginState) error {
	user, err := s.users.GetByIdentifier(ctx, st.identifier)
	if errors.Is(err, pkgerrors.ErrUserNotFound) {
		return pkgerrors.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	st.user = user
	return nil
}

func (s *SessionService) verifyCredentials(ctx context.Context, st *loginState) error {
	ok, err := s.verifier.Verify(st.password, st.user.Hash, st.user.Salt)
	if err != nil {
		return fmt.Errorf("verify credentials for %s: %w", st.user.ID, err)
	}
	if !ok {
		return pkgerrors.ErrInvalidCredentials
	}
	return nil
}

func (s *SessionService) issueTokens(ctx context.Context, st *loginState) error {
	access, err := s.issuer.IssueAccess(st.user, models.FlagLogin)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(st.user)
	if err != nil {
		return fmt.Errorf("issue refresh token: %w", err)
	}
	st.access, st.refresh = access, refresh
	return nil
}

func (s *SessionService) recordRefresh(ctx context.Context, st *loginState) error {
	if err := s.tokens.Record(ctx, st.user.ID, st.refresh); err != nil {
		return fmt.Errorf("record refresh token: %w", err)
	}
	return nil
}

type refreshState struct {
	token  string
	owner  *models.User
	access string
}

// Refresh mints a new access token for a stored, unexpired refresh token. The
// refresh token itself is not rotated. An expired token is removed from the
// store and reported as ErrTokenExpired.
func (s *SessionService) Refresh(ctx context.Context, token string) (string, error) {
	ctx, span := otel.Tracer("session-service").Start(ctx, "Refresh")
	defer span.End()

	state := &refreshState{token: token}
	err := runStages(ctx, "refresh", state,
		stage[refreshState]{"store-membership", s.checkMembership},
		stage[refreshState]{"expiry", s.checkExpiry},
		stage[refreshState]{"verify-and-issue", s.verifyAndIssue},
	)
	if err != nil {
		s.fail(ctx, span, "refresh", err)
		return "", err
	}

	observability.SessionOutcomes.WithLabelValues("refresh", "success").Inc()
	s.events.publish(ctx, models.EventAccessTokenRefreshed, state.owner)
	return state.access, nil
}

func (s *SessionService) checkMembership(ctx context.Context, st *refreshState) error {
	owner, err := s.tokens.Owner(ctx, st.token)
	if errors.Is(err, pkgerrors.ErrTokenNotFound) {
		return pkgerrors.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("check refresh token: %w", err)
	}
	st.owner = owner
	return nil
}

func (s *SessionService) checkExpiry(ctx context.Context, st *refreshState) error {
	claims, err := s.issuer.ParseRefresh(st.token, true)
	if err != nil {
		return pkgerrors.ErrTokenInvalid
	}
	exp, ok := auth.ExpiresAt(claims)
	if !ok {
		return pkgerrors.ErrTokenInvalid
	}
	if s.nowFunc().Before(exp) {
		return nil
	}

	if _, err := s.tokens.Revoke(ctx, st.token); err != nil {
		return fmt.Errorf("remove expired refresh token: %w", err)
	}
	observability.WithContext(ctx).Info("expired refresh token removed", "user_id", st.owner.ID)
	s.events.publish(ctx, models.EventRefreshTokenExpired, st.owner)
	return pkgerrors.ErrTokenExpired
}

func (s *SessionService) verifyAndIssue(ctx context.Context, st *refreshState) error {
	claims, err := s.issuer.ParseRefresh(st.token, false)
	if err != nil {
		return pkgerrors.ErrTokenInvalid
	}
	if claims.Subject != st.owner.ID {
		observability.WithContext(ctx).Warn("refresh token subject does not match owner",
			"user_id", st.owner.ID,
			"subject", claims.Subject)
		return pkgerrors.ErrTokenInvalid
	}
	access, err := s.issuer.IssueAccess(st.owner, models.FlagRefresh)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}
	st.access = access
	return nil
}

// Logout revokes token and reports whether any user held it.
func (s *SessionService) Logout(ctx context.Context, token string) (bool, error) {
	ctx, span := otel.Tracer("session-service").Start(ctx, "Logout")
	defer span.End()

	owner, err := s.tokens.Owner(ctx, token)
	if err != nil && !errors.Is(err, pkgerrors.ErrTokenNotFound) {
		s.fail(ctx, span, "logout", err)
		return false, fmt.Errorf("find refresh token owner: %w", err)
	}

	matched, err := s.tokens.Revoke(ctx, token)
	if err != nil {
		s.fail(ctx, span, "logout", err)
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}

	outcome := "no_session"
	if matched {
		outcome = "success"
		s.events.publish(ctx, models.EventUserLoggedOut, owner)
	}
	observability.SessionOutcomes.WithLabelValues("logout", outcome).Inc()
	return matched, nil
}

func (s *SessionService) fail(ctx context.Context, span trace.Span, operation string, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		outcome = "invalid_credentials"
	case errors.Is(err, pkgerrors.ErrTokenExpired):
		outcome = "expired"
	case errors.Is(err, pkgerrors.ErrTokenInvalid):
		outcome = "invalid"
	default:
		span.RecordError(err)
		observability.WithContext(ctx).Error("session operation failed", "operation", operation, "error", err)
	}
	span.SetStatus(codes.Error, outcome)
	observability.SessionOutcomes.WithLabelValues(operation, outcome).Inc()
}
