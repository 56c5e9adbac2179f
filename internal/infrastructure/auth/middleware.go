package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

type AccessTokenParser interface {
	ParseAccess(token string) (*models.AccessClaims, error)
}

// UserLookup resolves the subject of an access token to a current user.
type UserLookup interface {
	GetPublic(ctx context.Context, id string) (*models.PublicUser, error)
}

func AuthMiddleware(parser AccessTokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "authorization header missing")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := parser.ParseAccess(parts[1])
			if err != nil {
				observability.WithContext(r.Context()).Warn("access token rejected", "error", err)
				writeError(w, http.StatusForbidden, "Access token is expired or has been revoked")
				return
			}

			user, err := users.GetPublic(r.Context(), claims.Subject)
			if errors.Is(err, pkgerrors.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "Unable to find user")
				return
			}
			if err != nil {
				observability.WithContext(r.Context()).Error("failed to resolve token subject", "user_id", claims.Subject, "error", err)
				writeError(w, http.StatusInternalServerError, "Something went wrong")
				return
			}

			ctx := WithIdentity(r.Context(), IdentityFromUser(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
