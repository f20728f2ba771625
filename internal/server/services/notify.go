package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
)

// NotificationFanout creates version-change notifications for users a file
// is shared with. The uploading owner is never notified, and only targets
// whose preference admits version notifications get a record.
//
// Fanout runs after the version is committed and is best-effort: a failed
// insert is logged and skipped, it never undoes the upload.
type NotificationFanout struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewNotificationFanout(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *NotificationFanout {
	return &NotificationFanout{db: db, repomanager: m, log: log}
}

// Fanout notifies every eligible share target of the file about a new or
// replaced version.
func (f *NotificationFanout) Fanout(ctx context.Context, file *models.File) {
	shareRepo := f.repomanager.Shares(f.db)
	notifRepo := f.repomanager.Notifications(f.db)

	targets, err := shareRepo.ListByFile(ctx, file.ID)
	if err != nil {
		f.log.Error(ctx, "failed to list share targets for fanout", "file_id", file.ID, "error", err)
		return
	}

	for _, t := range targets {
		if t.User.ID == file.UserID {
			continue
		}
		if !t.User.WantsVersionNotifications() {
			continue
		}

		n := &models.Notification{
			ID:      uuid.NewString(),
			UserID:  t.User.ID,
			Title:   models.NotificationTitleVersion,
			Message: models.NotificationMessageUpdated,
		}
		if err := notifRepo.Create(ctx, n); err != nil {
			f.log.Error(ctx, "failed to create notification", "file_id", file.ID, "user_id", t.User.ID, "error", err)
		}
	}
}
