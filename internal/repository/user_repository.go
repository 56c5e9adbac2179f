package repository

import (
	"context"

	"github.com/renchester/blog-api/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIdentifier looks a user up by username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateDetails(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, salt, hash string) error
	Delete(ctx context.Context, id string) error
}
