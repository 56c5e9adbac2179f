package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTokenStore_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("Appends", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET tokens = array_append(tokens, $2) WHERE id = $1`)).
			WithArgs(aliceID, "tok1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Record(ctx, aliceID, "tok1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownUser", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectExec(regexp.QuoteMeta(`array_append`)).
			WithArgs(aliceID, "tok1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.Record(ctx, aliceID, "tok1"), pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTokenStore_IsActive(t *testing.T) {
	ctx := context.Background()

	for _, active := range []bool{true, false} {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE $1 = ANY(tokens))`)).
			WithArgs("tok1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(active))

		got, err := store.IsActive(ctx, "tok1")
		require.NoError(t, err)
		assert.Equal(t, active, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestPostgresTokenStore_Owner(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE $1 = ANY(tokens) LIMIT 1`)).
			WithArgs("tok1").
			WillReturnRows(aliceRow("{tok1}"))

		user, err := store.Owner(ctx, "tok1")
		require.NoError(t, err)
		assert.Equal(t, aliceID, user.ID)
		assert.Contains(t, user.Tokens, "tok1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`ANY(tokens)`)).
			WithArgs("tok1").
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := store.Owner(ctx, "tok1")
		assert.ErrorIs(t, err, pkgerrors.ErrTokenNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTokenStore_Revoke(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"Matched", 1, true},
		{"NotMatched", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			store := NewPostgresTokenStore(db)

			mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET tokens = array_remove(tokens, $1) WHERE $1 = ANY(tokens)`)).
				WithArgs("tok1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			matched, err := store.Revoke(ctx, "tok1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, matched)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("DatabaseError", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresTokenStore(db)

		mock.ExpectExec(regexp.QuoteMeta(`array_remove`)).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Revoke(ctx, "tok1")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
