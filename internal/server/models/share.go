package models

// Share permissions.
const (
	ShareRead  = "read"
	ShareWrite = "write"
)

// Share grants a non-owner user access to a file. At most one share per
// (file, user) pair; the owner is never a share target.
type Share struct {
	ID     string
	FileID string
	UserID string
	Status string // ShareRead or ShareWrite
}

// ShareWithUser is a share joined with its target user, as needed when
// rendering file results and fanning out notifications.
type ShareWithUser struct {
	Share
	User User
}
