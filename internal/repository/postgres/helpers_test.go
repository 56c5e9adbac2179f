package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var userColumnNames = []string{
	"id", "username", "email", "salt", "hash", "first_name", "last_name",
	"is_admin", "is_verified_author", "tokens", "created_at",
}

const aliceID = "5f0c6a52-6f7e-4c7a-9a57-1d2b8f1e0a11"

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func aliceRow(tokens string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumnNames).AddRow(
		aliceID, "alice_writer", "alice@example.com", "salt", "hash", "Alice", "Liddell",
		false, true, tokens, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	)
}
