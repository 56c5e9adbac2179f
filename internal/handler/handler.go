package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/renchester/blog-api/internal/infrastructure/auth"
	"github.com/renchester/blog-api/internal/infrastructure/observability"
	"github.com/renchester/blog-api/internal/models"
	service "github.com/renchester/blog-api/internal/services"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

type SessionService interface {
	Login(ctx context.Context, identifier, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.PublicUser, error)
	List(ctx context.Context) ([]models.PublicUser, error)
	GetPublic(ctx context.Context, id string) (*models.PublicUser, error)
	UpdateDetails(ctx context.Context, actor auth.Identity, id string, in service.UpdateDetailsInput) (*models.PublicUser, error)
	UpdatePassword(ctx context.Context, actor auth.Identity, id, oldPassword, newPassword string) error
	Delete(ctx context.Context, actor auth.Identity, id string) error
	Events(ctx context.Context, actor auth.Identity, id string, limit int) ([]models.AuthEvent, error)
}

type Handler struct {
	sessions SessionService
	users    UserService
	cookies  cookieSettings
}

func NewHandler(sessions SessionService, users UserService, secureCookies bool, refreshTTL time.Duration) *Handler {
	return &Handler{
		sessions: sessions,
		users:    users,
		cookies:  newCookieSettings(secureCookies, refreshTTL),
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/login-failure", h.LoginFailure).Methods("GET")
	r.HandleFunc("/auth/refresh", h.Refresh).Methods("GET", "POST")
	r.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	r.HandleFunc("/api", h.Welcome).Methods("GET")
	r.HandleFunc("/api/users", h.Register).Methods("POST")
	r.HandleFunc("/api/users", h.ListUsers).Methods("GET")
	r.HandleFunc("/api/users/{id}", h.GetUser).Methods("GET")
}

// RegisterProtectedRoutes must run before RegisterPublicRoutes so that
// /api/users/me is not captured by /api/users/{id}.
func (h *Handler) RegisterProtectedRoutes(r *mux.Router, authenticate func(http.Handler) http.Handler) {
	protect := func(fn http.HandlerFunc) http.Handler { return authenticate(fn) }

	r.Handle("/api/users/me", protect(h.Me)).Methods("GET")
	r.Handle("/api/users/{id}", protect(h.UpdateUser)).Methods("PUT")
	r.Handle("/api/users/{id}", protect(h.ChangePassword)).Methods("PATCH")
	r.Handle("/api/users/{id}", protect(h.DeleteUser)).Methods("DELETE")
	r.Handle("/api/users/{id}/events", protect(h.UserEvents)).Methods("GET")
}

func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome to the blog API",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeServiceError maps sentinel errors to statuses. Unknown errors become a
// generic 500 and are only logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   vErr.Error(),
			"fields":  vErr.Fields,
		})
	case errors.Is(err, pkgerrors.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidCredentials), errors.Is(err, pkgerrors.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, pkgerrors.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "You are not allowed to perform this action")
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "Unable to find user")
	case errors.Is(err, pkgerrors.ErrTokenExpired), errors.Is(err, pkgerrors.ErrTokenInvalid):
		h.writeError(w, http.StatusForbidden, tokenFailureMessage)
	case errors.Is(err, pkgerrors.ErrUsernameExists), errors.Is(err, pkgerrors.ErrEmailExists):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		observability.WithContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		h.writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &service.ValidationError{Fields: map[string]string{"body": "Request body must be valid JSON"}}
	}
	return nil
}
