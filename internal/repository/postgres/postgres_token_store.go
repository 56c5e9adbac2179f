package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/renchester/blog-api/internal/models"
	pkgerrors "github.com/renchester/blog-api/pkg/errors"
	"go.opentelemetry.io/otel"
)

// PostgresTokenStore keeps refresh tokens in the users.tokens array. Every
// mutation is a single UPDATE using array_append or array_remove.
type PostgresTokenStore struct {
	db *sqlx.DB
}

func NewPostgresTokenStore(db *sqlx.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) Record(ctx context.Context, userID, token string) (err error) {
	ctx, span := otel.Tracer("token-store").Start(ctx, "TokenStore.Record")
	defer span.End()
	defer func(start time.Time) { observe(span, "TokenStore.Record", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE users SET tokens = array_append(tokens, $2) WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to record refresh token: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresTokenStore) IsActive(ctx context.Context, token string) (active bool, err error) {
	ctx, span := otel.Tracer("token-store").Start(ctx, "TokenStore.IsActive")
	defer span.End()
	defer func(start time.Time) { observe(span, "TokenStore.IsActive", start, err) }(time.Now())

	err = s.db.GetContext(ctx, &active, `SELECT EXISTS (SELECT 1 FROM users WHERE $1 = ANY(tokens))`, token)
	if err != nil {
		return false, fmt.Errorf("failed to check refresh token: %w", err)
	}
	return active, nil
}

func (s *PostgresTokenStore) Owner(ctx context.Context, token string) (user *models.User, err error) {
	ctx, span := otel.Tracer("token-store").Start(ctx, "TokenStore.Owner")
	defer span.End()
	defer func(start time.Time) { observe(span, "TokenStore.Owner", start, err) }(time.Now())

	var u models.User
	err = s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE $1 = ANY(tokens) LIMIT 1`, token)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find refresh token owner: %w", err)
	}
	return &u, nil
}

func (s *PostgresTokenStore) Revoke(ctx context.Context, token string) (matched bool, err error) {
	ctx, span := otel.Tracer("token-store").Start(ctx, "TokenStore.Revoke")
	defer span.End()
	defer func(start time.Time) { observe(span, "TokenStore.Revoke", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE users SET tokens = array_remove(tokens, $1) WHERE $1 = ANY(tokens)`, token)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
