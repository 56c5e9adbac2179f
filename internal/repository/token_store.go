package repository

import (
	"context"

	"github.com/renchester/blog-api/internal/models"
)

// TokenStore keeps the set of active refresh tokens on each user record.
// Membership in the store is the authoritative revocation signal.
type TokenStore interface {
	// Record appends token to the user's set. Duplicates are not filtered.
	Record(ctx context.Context, userID, token string) error
	IsActive(ctx context.Context, token string) (bool, error)
	// Owner returns the user whose set contains token, or ErrTokenNotFound.
	Owner(ctx context.Context, token string) (*models.User, error)
	// Revoke removes token from whichever set holds it and reports whether a
	// user matched. A missing token is not an error.
	Revoke(ctx context.Context, token string) (bool, error)
}
