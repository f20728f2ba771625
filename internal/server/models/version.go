package models

import "time"

// Version is one stored byte-object backing a File at a point in time.
// The object in the content store is keyed by (user, file, version id +
// extension) and is owned by this row: deleting the row removes the object.
type Version struct {
	ID     string
	FileID string

	// Digest is the hex-encoded SHA-256 of the exact stored bytes
	// (post-compression, post-encryption). A fingerprint, not a dedup key.
	Digest string

	Size int64

	// Encrypted records whether the stored bytes are protected at rest
	// (IV-prefixed ciphertext), regardless of who performed the encryption.
	Encrypted bool

	CreatedAt time.Time
}
