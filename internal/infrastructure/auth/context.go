package auth

import (
	"context"

	"github.com/renchester/blog-api/internal/models"
)

// Identity is the authenticated caller, resolved from a verified access token.
type Identity struct {
	UserID           string
	Username         string
	IsAdmin          bool
	IsVerifiedAuthor bool
}

func IdentityFromUser(u *models.PublicUser) Identity {
	return Identity{
		UserID:           u.ID,
		Username:         u.Username,
		IsAdmin:          u.IsAdmin,
		IsVerifiedAuthor: u.IsVerifiedAuthor,
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
