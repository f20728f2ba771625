package versions

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, version *models.Version) error
	// UpdateInPlace rewrites digest, size, encrypted flag and creation
	// timestamp of an existing version, preserving its identity so external
	// links to the version id stay valid.
	UpdateInPlace(ctx context.Context, version *models.Version) error
	Newest(ctx context.Context, fileID string) (*models.Version, error)
	GetByID(ctx context.Context, id string) (*models.Version, error)
	// ListByFile returns versions ordered newest-first.
	ListByFile(ctx context.Context, fileID string) ([]*models.Version, error)
}
