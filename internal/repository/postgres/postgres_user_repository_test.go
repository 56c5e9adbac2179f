package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	newUser := func() *models.User {
		return &models.User{
			Username:  "alice_writer",
			Email:     "alice@example.com",
			Salt:      "salt",
			Hash:      "hash",
			FirstName: "Alice",
			LastName:  "Liddell",
		}
	}

	t.Run("NilUser", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		err := repo.Create(ctx, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNilUser)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)
		user := newUser()
		createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(sqlmock.AnyArg(), user.Username, user.Email, user.Salt, user.Hash,
				user.FirstName, user.LastName, false, false, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

		err := repo.Create(ctx, user)
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, createdAt, user.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		err := repo.Create(ctx, newUser())
		assert.ErrorIs(t, err, pkgerrors.ErrUsernameExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmailTaken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.Create(ctx, newUser())
		assert.ErrorIs(t, err, pkgerrors.ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(errors.New("connection refused"))

		err := repo.Create(ctx, newUser())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE id = $1`)).
			WithArgs(aliceID).
			WillReturnRows(aliceRow("{tok1,tok2}"))

		user, err := repo.GetByID(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, "alice_writer", user.Username)
		assert.True(t, user.IsVerifiedAuthor)
		assert.Equal(t, pq.StringArray{"tok1", "tok2"}, user.Tokens)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
			WithArgs(aliceID).
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := repo.GetByID(ctx, aliceID)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MalformedID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		_, err := repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("ByEmail", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
			WithArgs("alice@example.com").
			WillReturnRows(aliceRow("{}"))

		user, err := repo.GetByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, aliceID, user.ID)
		assert.Empty(t, user.Tokens)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ByUsername", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
			WithArgs("alice_writer").
			WillReturnRows(aliceRow("{}"))

		user, err := repo.GetByIdentifier(ctx, "alice_writer")
		require.NoError(t, err)
		assert.Equal(t, aliceID, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		_, err := repo.GetByIdentifier(ctx, "")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userColumnNames))

		_, err := repo.GetByIdentifier(ctx, "ghost")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY created_at`)).
		WillReturnRows(aliceRow("{}"))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice_writer", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_UpdateDetails(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: aliceID, Username: "alice_editor", Email: "alice@example.com", FirstName: "Alice", LastName: "L"}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
			WithArgs(user.ID, user.Username, user.Email, user.FirstName, user.LastName).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateDetails(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateDetails(ctx, user), pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users`)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		assert.ErrorIs(t, repo.UpdateDetails(ctx, user), pkgerrors.ErrUsernameExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_UpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET salt = $2, hash = $3 WHERE id = $1`)).
		WithArgs(aliceID, "newsalt", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePassword(context.Background(), aliceID, "newsalt", "newhash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
			WithArgs(aliceID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, aliceID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
			WithArgs(aliceID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, aliceID), pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
