package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/cryptox"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
	"github.com/dmitrijs2005/filekeeper/internal/sniffx"
)

// VersionInfo is one ledger entry in a file listing.
type VersionInfo struct {
	ID        string    `json:"uuid"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	Encrypted bool      `json:"encrypted"`
	CreatedAt time.Time `json:"date"`
}

// ShareUser identifies a collaborator in file results.
type ShareUser struct {
	ID    string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// ShareTarget is one active share on a file.
type ShareTarget struct {
	User   ShareUser `json:"user"`
	Status string    `json:"status"`
}

// FileInfo is one file in a listing, with its versions newest first.
type FileInfo struct {
	ID         string         `json:"uuid"`
	Name       string         `json:"name"`
	Owner      string         `json:"owner"`
	Status     string         `json:"status"`
	Slug       string         `json:"slug,omitempty"`
	Expiration *time.Time     `json:"expiration,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Shares     []*ShareTarget `json:"shares"`
	Versions   []*VersionInfo `json:"versions"`
}

// versionPath builds the canonical download URL for one version. The
// extension suffix is a per-owner presentation preference.
func versionPath(base string, file *models.File, versionID string, withExt bool) string {
	path := fmt.Sprintf("%s/api/files/%s/versions/%s", base, file.ID, versionID)
	if withExt {
		path += strings.ToLower(filepath.Ext(file.Name))
	}
	return path
}

func shareTargets(list []*models.ShareWithUser) []*ShareTarget {
	out := make([]*ShareTarget, 0, len(list))
	for _, s := range list {
		out = append(out, &ShareTarget{
			User:   ShareUser{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email, Image: s.User.Image},
			Status: s.Status,
		})
	}
	return out
}

// FileService covers reads and management of stored files: listing,
// downloads, deletion, sharing, and the notification inbox.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         storage.ContentStore
	log           logging.Logger
	contentKey    []byte
	publicBaseURL string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store storage.ContentStore,
	log logging.Logger, cfg *config.Config) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		store:         store,
		log:           log,
		contentKey:    cryptox.DeriveKey([]byte(cfg.EncryptionSecret), []byte(cfg.EncryptionSalt)),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// List returns the user's files with their version history.
func (s *FileService) List(ctx context.Context, userID string) ([]*FileInfo, error) {
	owner, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	fileRepo := s.repomanager.Files(s.db)
	versionRepo := s.repomanager.Versions(s.db)
	shareRepo := s.repomanager.Shares(s.db)

	files, err := fileRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	out := make([]*FileInfo, 0, len(files))
	for _, f := range files {
		versions, err := versionRepo.ListByFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing versions: %w", err)
		}

		status := f.Status
		targets, err := shareRepo.ListByFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing shares: %w", err)
		}
		var shares []*ShareTarget
		if len(targets) > 0 {
			status = models.StatusShared
			shares = shareTargets(targets)
		}

		info := &FileInfo{
			ID:         f.ID,
			Name:       f.Name,
			Owner:      f.UserID,
			Status:     status,
			Slug:       f.Slug,
			Expiration: f.Expiration,
			UpdatedAt:  f.UpdatedAt,
			Shares:     shares,
		}
		for _, v := range versions {
			info.Versions = append(info.Versions, &VersionInfo{
				ID: v.ID, Digest: v.Digest, Size: v.Size, Encrypted: v.Encrypted,
				Path:      versionPath(s.publicBaseURL, f, v.ID, owner.PrefExtension),
				CreatedAt: v.CreatedAt,
			})
		}
		out = append(out, info)
	}
	return out, nil
}

// Download returns the decrypted bytes of one version together with the
// file's display name and detected content type. requesterID is empty for
// unauthenticated requests, which may only reach public files.
//
// Payloads the server cannot decrypt were encrypted by the client and are
// returned as stored.
func (s *FileService) Download(ctx context.Context, requesterID, fileID, versionID string) ([]byte, string, string, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, "", "", err
	}

	if file.Expiration != nil && file.Expiration.Before(time.Now()) {
		return nil, "", "", common.ErrorNotFound
	}

	if err := s.authorizeRead(ctx, file, requesterID); err != nil {
		return nil, "", "", err
	}

	version, err := s.repomanager.Versions(s.db).GetByID(ctx, versionID)
	if err != nil {
		return nil, "", "", err
	}
	if version.FileID != file.ID {
		return nil, "", "", common.ErrorNotFound
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	data, err := s.store.Get(ctx, file.UserID, file.ID, version.ID+ext)
	if err != nil {
		return nil, "", "", err
	}

	if version.Encrypted {
		plaintext, err := cryptox.Decrypt(data, s.contentKey)
		if err == nil {
			data = plaintext
		}
		// A failed open means client-side encryption; serve as stored.
	}

	return data, file.Name, sniffx.Detect(data), nil
}

// Delete removes a file, its versions, shares, and stored objects.
// Only the owner may delete.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UserID != userID {
		return common.ErrorForbidden
	}

	// Rows cascade in the database; objects go separately.
	if err := s.repomanager.Files(s.db).Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.store.DeleteFile(ctx, file.UserID, fileID); err != nil {
		s.log.Warn(ctx, "object cleanup failed after delete", "file_id", fileID, "error", err)
	}
	return nil
}

// Share grants or updates a target user's access to a file. Only the
// owner may share, and never with themselves.
func (s *FileService) Share(ctx context.Context, ownerID, fileID, targetUserID, permission string) error {
	if permission != models.ShareRead && permission != models.ShareWrite {
		return common.ErrorValidation
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UserID != ownerID {
		return common.ErrorForbidden
	}
	if targetUserID == ownerID {
		return common.ErrorValidation
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, targetUserID); err != nil {
		return err
	}

	return s.repomanager.Shares(s.db).Upsert(ctx, &models.Share{
		ID:     uuid.NewString(),
		FileID: fileID,
		UserID: targetUserID,
		Status: permission,
	})
}

// Unshare revokes a target user's access to a file.
func (s *FileService) Unshare(ctx context.Context, ownerID, fileID, targetUserID string) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UserID != ownerID {
		return common.ErrorForbidden
	}
	return s.repomanager.Shares(s.db).Delete(ctx, fileID, targetUserID)
}

// Notifications returns the user's notifications, newest first.
func (s *FileService) Notifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repomanager.Notifications(s.db).ListByUser(ctx, userID)
}

// MarkNotificationsRead marks every notification of the user as read.
func (s *FileService) MarkNotificationsRead(ctx context.Context, userID string) error {
	return s.repomanager.Notifications(s.db).MarkAllRead(ctx, userID)
}

func (s *FileService) authorizeRead(ctx context.Context, file *models.File, requesterID string) error {
	if file.Status == models.StatusPublic {
		return nil
	}
	if requesterID == "" {
		return common.ErrorUnauthorized
	}
	if file.UserID == requesterID {
		return nil
	}
	shared, err := s.repomanager.Shares(s.db).Exists(ctx, file.ID, requesterID)
	if err != nil {
		return err
	}
	if !shared {
		return common.ErrorForbidden
	}
	return nil
}
