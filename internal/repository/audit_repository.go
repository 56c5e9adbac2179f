package repository

import (
	"context"

	"github.com/renchester/blog-api/internal/models"
)

type AuditRepository interface {
	Create(ctx context.Context, event *models.AuthEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AuthEvent, error)
}
