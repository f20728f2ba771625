package shares

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	// Upsert creates a share or updates the permission of an existing one;
	// the (file_id, user_id) pair stays unique either way.
	Upsert(ctx context.Context, share *models.Share) error
	Delete(ctx context.Context, fileID, userID string) error
	// ListByFile returns shares joined with their target users.
	ListByFile(ctx context.Context, fileID string) ([]*models.ShareWithUser, error)
	// Exists reports whether the user has any share on the file.
	Exists(ctx context.Context, fileID, userID string) (bool, error)
}
