package models

import "time"

// File visibility statuses stored in the database. "shared" is derived at
// read time from active shares and never persisted.
const (
	StatusPrivate = "private"
	StatusPublic  = "public"
	StatusShared  = "shared"
)

// File is a logical uploaded resource owned by one user. The byte content
// lives in the content store, one object per version.
type File struct {
	ID     string
	UserID string

	// Name is the resolved display name: original base name plus the
	// detected extension, truncated. Unique per owner.
	Name string

	Status     string
	Slug       string     // short-link alias, empty until assigned
	Expiration *time.Time // optional, nil means no expiry

	CreatedAt time.Time
	UpdatedAt time.Time
}
