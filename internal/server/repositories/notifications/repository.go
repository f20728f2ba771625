package notifications

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}
