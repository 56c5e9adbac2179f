package handler

import (
	"net/http"
	"time"
)

const (
	refreshCookieName          = "jwt"
	defaultRefreshCookieMaxAge = 30 * 24 * time.Hour
)

type cookieSettings struct {
	secure bool
	maxAge time.Duration
}

// maxAge should match the refresh token lifetime.
func newCookieSettings(secure bool, maxAge time.Duration) cookieSettings {
	if maxAge <= 0 {
		maxAge = defaultRefreshCookieMaxAge
	}
	return cookieSettings{secure: secure, maxAge: maxAge}
}

// SameSite=None lets the front end on another origin send the cookie to /auth/refresh.
func (c cookieSettings) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c cookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func refreshToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
