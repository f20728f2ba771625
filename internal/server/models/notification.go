package models

import "time"

// Notification title/message codes. These are stable identifiers the UI
// localizes; free text is never stored.
const (
	NotificationTitleVersion   = "file.version"
	NotificationMessageUpdated = "file.version.updated"
)

// Notification is a lightweight per-user event record created by the
// fanout component. Pruning is handled by an external maintenance job.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
