package storage

import (
	"context"
)

// ContentStore keeps version payloads outside the database. Objects are
// addressed by owner, file and object name, where the object name is the
// version ID plus the file's extension.
type ContentStore interface {
	Put(ctx context.Context, userID, fileID, object string, data []byte) error
	Get(ctx context.Context, userID, fileID, object string) ([]byte, error)
	Delete(ctx context.Context, userID, fileID, object string) error
	// DeleteFile removes every stored version of a file.
	DeleteFile(ctx context.Context, userID, fileID string) error
	// Usage reports the total number of stored bytes for a user.
	Usage(ctx context.Context, userID string) (int64, error)
}
