package models

import "time"

type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventUserLoggedIn         EventType = "user_logged_in"
	EventAccessTokenRefreshed EventType = "access_token_refreshed"
	EventRefreshTokenExpired  EventType = "refresh_token_expired"
	EventUserLoggedOut        EventType = "user_logged_out"
	EventUserDeleted          EventType = "user_deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventUserRegistered, EventUserLoggedIn, EventAccessTokenRefreshed,
		EventRefreshTokenExpired, EventUserLoggedOut, EventUserDeleted:
		return true
	}
	return false
}

type AuthEvent struct {
	ID         int64     `db:"id" json:"-"`
	Type       EventType `db:"event_type" json:"event_type"`
	UserID     string    `db:"user_id" json:"user_id"`
	Username   string    `db:"username" json:"username,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}
