package handler

import (
	"errors"
	"net/http"

	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

const (
	loginFailureMessage = "Failed to login"
	tokenFailureMessage = "Token is expired or has been revoked"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (req loginRequest) identifier() string {
	switch {
	case req.Identifier != "":
		return req.Identifier
	case req.Username != "":
		return req.Username
	default:
		return req.Email
	}
}

type loginResponse struct {
	Success     bool              `json:"success"`
	User        models.PublicUser `json:"user"`
	AccessToken string            `json:"accessToken"`
}

type refreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.identifier() == "" || req.Password == "" {
		h.writeError(w, http.StatusUnauthorized, loginFailureMessage)
		return
	}

	res, err := h.sessions.Login(r.Context(), req.identifier(), req.Password)
	if errors.Is(err, pkgerrors.ErrInvalidCredentials) {
		h.writeError(w, http.StatusUnauthorized, loginFailureMessage)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.cookies.set(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, loginResponse{
		Success:     true,
		User:        res.User,
		AccessToken: res.AccessToken,
	})
}

func (h *Handler) LoginFailure(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusUnauthorized, loginFailureMessage)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshToken(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	access, err := h.sessions.Refresh(r.Context(), token)
	switch {
	case errors.Is(err, pkgerrors.ErrTokenExpired):
		h.cookies.clear(w)
		h.writeError(w, http.StatusForbidden, tokenFailureMessage)
		return
	case errors.Is(err, pkgerrors.ErrTokenInvalid):
		h.writeError(w, http.StatusForbidden, tokenFailureMessage)
		return
	case err != nil:
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Success: true, AccessToken: access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshToken(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	matched, err := h.sessions.Logout(r.Context(), token)
	h.cookies.clear(w)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !matched {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
