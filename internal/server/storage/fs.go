package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// FSStore lays objects out as root/userID/fileID/object.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) objectPath(userID, fileID, object string) string {
	return filepath.Join(s.root, userID, fileID, object)
}

func (s *FSStore) Put(ctx context.Context, userID, fileID, object string, data []byte) error {
	dir := filepath.Join(s.root, userID, fileID)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("failed to create object dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, object), data, 0o660); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, userID, fileID, object string) ([]byte, error) {
	data, err := os.ReadFile(s.objectPath(userID, fileID, object))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (s *FSStore) Delete(ctx context.Context, userID, fileID, object string) error {
	err := os.Remove(s.objectPath(userID, fileID, object))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *FSStore) DeleteFile(ctx context.Context, userID, fileID string) error {
	if err := os.RemoveAll(filepath.Join(s.root, userID, fileID)); err != nil {
		return fmt.Errorf("failed to delete file objects: %w", err)
	}
	return nil
}

func (s *FSStore) Usage(ctx context.Context, userID string) (int64, error) {
	var total int64
	root := filepath.Join(s.root, userID)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to measure usage: %w", err)
	}
	return total, nil
}
