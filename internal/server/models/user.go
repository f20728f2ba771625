// Package models defines server-side data models persisted in the database.
package models

import "time"

// User roles. Administrators bypass the quota filter and the MIME
// allow-list.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Notification preference values. "necessary" and "all" both receive
// version-change notifications; "off" receives none.
const (
	NotifyOff       = "off"
	NotifyNecessary = "necessary"
	NotifyAll       = "all"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Image        string

	// Stored preferences consumed by the ingestion pipeline.
	PrefPublic       bool   // default visibility of newly created files
	PrefVersions     bool   // keep full version history vs. single version
	PrefExtension    bool   // include the extension in public access paths
	PrefNotification string // NotifyOff / NotifyNecessary / NotifyAll

	CreatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// WantsVersionNotifications reports whether version-change notifications
// should be created for this user.
func (u *User) WantsVersionNotifications() bool {
	return u.PrefNotification == NotifyNecessary || u.PrefNotification == NotifyAll
}
