package models

import "github.com/golang-jwt/jwt/v5"

type TokenFlag string

const (
	FlagLogin   TokenFlag = "login"
	FlagRefresh TokenFlag = "refresh"
)

// UserClaims is the profile snapshot carried by an access token.
type UserClaims struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	IsAdmin          bool   `json:"is_admin"`
	IsVerifiedAuthor bool   `json:"is_verified_author"`
}

type AccessClaims struct {
	jwt.RegisteredClaims
	User UserClaims `json:"user"`
	Flag TokenFlag  `json:"flag"`
}

// RefreshClaims carries the subject only; refresh tokens are never used for
// authorization directly.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

func ClaimsFor(u *User) UserClaims {
	return UserClaims{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		IsAdmin:          u.IsAdmin,
		IsVerifiedAuthor: u.IsVerifiedAuthor,
	}
}
