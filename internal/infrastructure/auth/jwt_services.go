package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

var signingMethod = jwt.SigningMethodRS256

// JWTService signs access and refresh tokens with separate RSA key pairs.
type JWTService struct {
	access     KeyPair
	refresh    KeyPair
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

func NewJWTService(access, refresh KeyPair, issuer string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if access.Private == nil || access.Public == nil {
		return nil, fmt.Errorf("%w: access key pair is required", ErrInvalidKey)
	}
	if refresh.Private == nil || refresh.Public == nil {
		return nil, fmt.Errorf("%w: refresh key pair is required", ErrInvalidKey)
	}
	return &JWTService{
		access:     access,
		refresh:    refresh,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowFunc:    time.Now,
	}, nil
}

func (s *JWTService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.nowFunc()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *JWTService) IssueAccess(user *models.User, flag models.TokenFlag) (string, error) {
	if user == nil {
		return "", pkgerrors.ErrNilUser
	}
	claims := models.AccessClaims{
		RegisteredClaims: s.registered(user.ID, s.accessTTL),
		User:             models.ClaimsFor(user),
		Flag:             flag,
	}
	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.access.Private)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (s *JWTService) IssueRefresh(user *models.User) (string, error) {
	if user == nil {
		return "", pkgerrors.ErrNilUser
	}
	claims := models.RefreshClaims{RegisteredClaims: s.registered(user.ID, s.refreshTTL)}
	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.refresh.Private)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return token, nil
}

func (s *JWTService) ParseAccess(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	if err := s.parse(tokenString, claims, s.access, false); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh always checks the signature; ignoreExpiry only skips claim
// validation so that the caller can inspect exp itself.
func (s *JWTService) ParseRefresh(tokenString string, ignoreExpiry bool) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	if err := s.parse(tokenString, claims, s.refresh, ignoreExpiry); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, pair KeyPair, skipClaims bool) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(s.nowFunc),
	}
	if skipClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return pair.Public, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", pkgerrors.ErrTokenExpired, err)
	case err != nil:
		return fmt.Errorf("%w: %v", pkgerrors.ErrTokenInvalid, err)
	case !token.Valid:
		return pkgerrors.ErrTokenInvalid
	}
	return nil
}

// ExpiresAt is a helper for callers that parsed with ignoreExpiry.
func ExpiresAt(claims jwt.Claims) (time.Time, bool) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
