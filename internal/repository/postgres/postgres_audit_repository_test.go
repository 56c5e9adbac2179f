package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/renchester/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresAuditRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAuditRepository(db)
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := &models.AuthEvent{Type: models.EventUserLoggedIn, UserID: aliceID, Username: "alice_writer", OccurredAt: occurred}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO auth_events (event_type, user_id, username, occurred_at)`)).
		WithArgs("user_logged_in", aliceID, "alice_writer", occurred).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, repo.Create(context.Background(), event))
	assert.Equal(t, int64(7), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditRepository_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAuditRepository(db)
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM auth_events`)).
		WithArgs(aliceID, defaultAuditLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "user_id", "username", "occurred_at"}).
			AddRow(int64(2), "user_logged_out", aliceID, "alice_writer", occurred).
			AddRow(int64(1), "user_logged_in", aliceID, "alice_writer", occurred.Add(-time.Hour)))

	events, err := repo.ListByUser(context.Background(), aliceID, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventUserLoggedOut, events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
