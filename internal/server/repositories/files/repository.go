package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetByOwnerAndName(ctx context.Context, userID, name string) (*models.File, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.File, error)
	// Touch refreshes updated_at and, when expiration is non-nil, replaces
	// the stored expiration.
	Touch(ctx context.Context, id string, expiration *time.Time) error
	UpdateSlug(ctx context.Context, id, slug string) error
	// Delete removes the file row; versions, shares and notifications
	// cascade in the database.
	Delete(ctx context.Context, id string) error
}
