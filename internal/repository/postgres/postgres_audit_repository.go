package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/renchester/blog-api/internal/models"
	"go.opentelemetry.io/otel"
)

const defaultAuditLimit = 50

type PostgresAuditRepository struct {
	db *sqlx.DB
}

func NewPostgresAuditRepository(db *sqlx.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) Create(ctx context.Context, event *models.AuthEvent) (err error) {
	ctx, span := otel.Tracer("audit-repository").Start(ctx, "AuditRepository.Create")
	defer span.End()
	defer func(start time.Time) { observe(span, "AuditRepository.Create", start, err) }(time.Now())

	if event == nil {
		return fmt.Errorf("event is nil")
	}

	query := `
	INSERT INTO auth_events (event_type, user_id, username, occurred_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`
	err = r.db.QueryRowxContext(ctx, query, event.Type, event.UserID, event.Username, event.OccurredAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert auth event: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) ListByUser(ctx context.Context, userID string, limit int) (events []models.AuthEvent, err error) {
	ctx, span := otel.Tracer("audit-repository").Start(ctx, "AuditRepository.ListByUser")
	defer span.End()
	defer func(start time.Time) { observe(span, "AuditRepository.ListByUser", start, err) }(time.Now())

	if limit <= 0 {
		limit = defaultAuditLimit
	}

	events = []models.AuthEvent{}
	query := `
	SELECT id, event_type, user_id, username, occurred_at
	FROM auth_events
	WHERE user_id = $1
	ORDER BY occurred_at DESC
	LIMIT $2
	`
	if err = r.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	return events, nil
}
