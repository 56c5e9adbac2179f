package models

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID               string         `db:"id"`
	Username         string         `db:"username"`
	Email            string         `db:"email"`
	Salt             string         `db:"salt"`
	Hash             string         `db:"hash"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	IsAdmin          bool           `db:"is_admin"`
	IsVerifiedAuthor bool           `db:"is_verified_author"`
	Tokens           pq.StringArray `db:"tokens"`
	CreatedAt        time.Time      `db:"created_at"`
}

// PublicUser is the part of a user that may leave the service.
type PublicUser struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	IsAdmin          bool      `json:"admin"`
	IsVerifiedAuthor bool      `json:"is_verified_author"`
	CreatedAt        time.Time `json:"date_created"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		IsAdmin:          u.IsAdmin,
		IsVerifiedAuthor: u.IsVerifiedAuthor,
		CreatedAt:        u.CreatedAt,
	}
}
