package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"go.opentelemetry.io/otel"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, salt, hash, first_name, last_name, is_admin, is_verified_author, tokens, created_at`

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.Create")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.Create", start, err) }(time.Now())

	if user == nil {
		return pkgerrors.ErrNilUser
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Tokens == nil {
		user.Tokens = pq.StringArray{}
	}

	query := `
	INSERT INTO users (id, username, email, salt, hash, first_name, last_name, is_admin, is_verified_author, tokens)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at
	`
	err = r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Salt,
		user.Hash,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.IsVerifiedAuthor,
		user.Tokens,
	).Scan(&user.CreatedAt)
	if err != nil {
		return mapUniqueViolation(err, "failed to create user")
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (user *models.User, err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.GetByID")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.GetByID", start, err) }(time.Now())

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, pkgerrors.ErrUserNotFound
	}

	var u models.User
	err = r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByIdentifier(ctx context.Context, identifier string) (user *models.User, err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.GetByIdentifier")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.GetByIdentifier", start, err) }(time.Now())

	if identifier == "" {
		return nil, pkgerrors.ErrUserNotFound
	}

	// usernames never contain '@'
	column := "username"
	if strings.Contains(identifier, "@") {
		column = "email"
	}

	var u models.User
	err = r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, identifier)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context) (users []models.User, err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.List")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.List", start, err) }(time.Now())

	users = []models.User{}
	if err = r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, user *models.User) (err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.UpdateDetails")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.UpdateDetails", start, err) }(time.Now())

	if user == nil {
		return pkgerrors.ErrNilUser
	}

	query := `
	UPDATE users
	SET username = $2, email = $3, first_name = $4, last_name = $5
	WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.FirstName, user.LastName)
	if err != nil {
		return mapUniqueViolation(err, "failed to update user")
	}
	return requireAffected(res)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, salt, hash string) (err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.UpdatePassword")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.UpdatePassword", start, err) }(time.Now())

	res, err := r.db.ExecContext(ctx, `UPDATE users SET salt = $2, hash = $3 WHERE id = $1`, id, salt, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, span := otel.Tracer("user-repository").Start(ctx, "UserRepository.Delete")
	defer span.End()
	defer func(start time.Time) { observe(span, "UserRepository.Delete", start, err) }(time.Now())

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return pkgerrors.ErrUserNotFound
	}
	return nil
}

func mapUniqueViolation(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "users_email_key" {
			return pkgerrors.ErrEmailExists
		}
		return pkgerrors.ErrUsernameExists
	}
	return fmt.Errorf("%s: %w", msg, err)
}
