package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/cryptox"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/imagex"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
	"github.com/dmitrijs2005/filekeeper/internal/sniffx"
)

// Rejection reasons reported per file.
const (
	ReasonQuotaExceeded    = "quota_exceeded"
	ReasonTypeNotAccepted  = "type_not_accepted"
	ReasonTypeUndetectable = "type_undetectable"
	ReasonInternalError    = "internal_error"
)

// maxFileNameLen bounds the resolved display name, extension included.
const maxFileNameLen = 100

// transformConcurrency caps how many payloads are compressed, encrypted
// and hashed at the same time.
const transformConcurrency = 4

// FileUpload is one payload submitted in an upload batch.
type FileUpload struct {
	Name string
	Data []byte
}

// UploadOptions apply to a whole batch.
type UploadOptions struct {
	// Shorten requests a short link for each stored file.
	Shorten bool
	// ClientEncrypted marks payloads as already encrypted by the client.
	// Such payloads are never recompressed or re-encrypted.
	ClientEncrypted bool
	// Compress requests lossy recompression of recognized image formats.
	Compress bool
	// Expiration, when set, is stored on each touched file.
	Expiration *time.Time
}

// FileResult describes one stored file in an upload response, including
// the file's full version history and active shares.
type FileResult struct {
	FileID     string         `json:"uuid"`
	VersionID  string         `json:"version"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Digest     string         `json:"digest"`
	Size       int64          `json:"size"`
	Owner      string         `json:"owner"`
	Status     string         `json:"status"`
	AccessPath string         `json:"path"`
	ShortLink  string         `json:"slug,omitempty"`
	Expiration *time.Time     `json:"expiration,omitempty"`
	Shares     []*ShareTarget `json:"shares"`
	Versions   []*VersionInfo `json:"versions"`
}

// RejectedFile names a payload that was not stored and why.
type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult is the outcome of one batch. Success requires at least one
// stored file and no quota rejection anywhere in the batch.
type UploadResult struct {
	Success  bool
	Reason   string
	Stored   []*FileResult
	Rejected []*RejectedFile
}

// UploadService runs the ingestion pipeline: quota admission, content type
// sniffing, optional recompression, encryption at rest, digesting, and the
// version ledger. Each payload succeeds or fails on its own.
type UploadService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         storage.ContentStore
	fanout        *NotificationFanout
	shortener     *ShortenerClient
	log           logging.Logger
	maxQuotaBytes int64
	acceptedTypes []string
	contentKey    []byte
	publicBaseURL string
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store storage.ContentStore,
	fanout *NotificationFanout, shortener *ShortenerClient, log logging.Logger, cfg *config.Config) *UploadService {
	return &UploadService{
		db:            db,
		repomanager:   m,
		store:         store,
		fanout:        fanout,
		shortener:     shortener,
		log:           log,
		maxQuotaBytes: cfg.MaxQuotaBytes,
		acceptedTypes: strings.Split(cfg.AcceptedTypes, ","),
		contentKey:    cryptox.DeriveKey([]byte(cfg.EncryptionSecret), []byte(cfg.EncryptionSalt)),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// pipelineItem carries one payload through the stages.
type pipelineItem struct {
	upload *FileUpload

	mimeType string
	ext      string
	name     string

	// stored bytes after compression/encryption
	data      []byte
	digest    string
	encrypted bool

	rejected *RejectedFile
	result   *FileResult
}

// Upload processes a batch for the given user.
func (s *UploadService) Upload(ctx context.Context, userID string, uploads []*FileUpload, opts UploadOptions) (*UploadResult, error) {
	owner, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	usage, err := s.store.Usage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error measuring usage: %w", err)
	}
	accountant := NewQuotaAccountant(usage, s.maxQuotaBytes, owner.IsAdmin())

	items := make([]*pipelineItem, len(uploads))
	for i, u := range uploads {
		items[i] = &pipelineItem{upload: u}
	}

	// Admission runs in submission order so the greedy quota behaves
	// deterministically.
	for _, item := range items {
		s.admit(item, owner, accountant, opts)
	}

	// Heavy per-payload work runs concurrently. Failures stay on the item.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transformConcurrency)
	for _, item := range items {
		if item.rejected != nil {
			continue
		}
		g.Go(func() error {
			s.transform(gctx, item, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range items {
		if item.rejected != nil {
			continue
		}
		s.record(ctx, item, owner, opts)
	}

	res := &UploadResult{}
	for _, item := range items {
		if item.rejected != nil {
			res.Rejected = append(res.Rejected, item.rejected)
		} else if item.result != nil {
			res.Stored = append(res.Stored, item.result)
		}
	}
	res.Success = len(res.Stored) > 0 && !accountant.Exceeded()
	if !res.Success {
		if accountant.Exceeded() {
			res.Reason = ReasonQuotaExceeded
		} else {
			res.Reason = "no files stored"
		}
	}
	return res, nil
}

// admit applies the quota and the content type policy.
func (s *UploadService) admit(item *pipelineItem, owner *models.User, accountant *QuotaAccountant, opts UploadOptions) {
	name := filepath.Base(item.upload.Name)

	if err := accountant.Admit(int64(len(item.upload.Data))); err != nil {
		item.rejected = &RejectedFile{Name: name, Reason: rejectionReason(err)}
		return
	}

	item.mimeType = sniffx.Detect(item.upload.Data)
	if err := s.checkType(item.mimeType, owner, opts); err != nil {
		item.rejected = &RejectedFile{Name: name, Reason: rejectionReason(err)}
		return
	}

	item.ext = sniffx.Extension(item.mimeType, item.upload.Name)
	item.name = resolveName(item.upload.Name, item.ext)
}

// checkType enforces the MIME allow-list. Administrators bypass it, and
// client-side encryption leaves no signature to sniff, so such payloads
// are admitted on the owner's word.
func (s *UploadService) checkType(mimeType string, owner *models.User, opts UploadOptions) error {
	if owner.IsAdmin() {
		return nil
	}
	if mimeType == "" {
		if opts.ClientEncrypted {
			return nil
		}
		return common.ErrUndetectable
	}
	if !sniffx.MatchesPrefix(mimeType, s.acceptedTypes) {
		return common.ErrUnsupportedType
	}
	return nil
}

// rejectionReason maps pipeline errors to the stable per-file reason
// codes reported to clients.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, common.ErrQuotaExceeded):
		return ReasonQuotaExceeded
	case errors.Is(err, common.ErrUnsupportedType):
		return ReasonTypeNotAccepted
	case errors.Is(err, common.ErrUndetectable):
		return ReasonTypeUndetectable
	default:
		return ReasonInternalError
	}
}

// transform compresses, encrypts and digests the payload.
func (s *UploadService) transform(ctx context.Context, item *pipelineItem, opts UploadOptions) {
	data := item.upload.Data

	if opts.Compress && !opts.ClientEncrypted {
		compressed, err := imagex.Recompress(data, item.ext)
		if err != nil {
			s.log.Warn(ctx, "recompression failed, storing original", "name", item.name, "error", err)
		} else {
			data = compressed
		}
	}

	if opts.ClientEncrypted {
		item.encrypted = true
	} else {
		encrypted, err := cryptox.Encrypt(data, s.contentKey)
		if err != nil {
			s.log.Error(ctx, "encryption failed", "name", item.name, "error", err)
			item.rejected = &RejectedFile{Name: item.name, Reason: ReasonInternalError}
			return
		}
		data = encrypted
		item.encrypted = true
	}

	sum := sha256.Sum256(data)
	item.digest = hex.EncodeToString(sum[:])
	item.data = data
}

// record stores the payload bytes and writes the ledger entry for one file.
func (s *UploadService) record(ctx context.Context, item *pipelineItem, owner *models.User, opts UploadOptions) {
	fileRepo := s.repomanager.Files(s.db)

	existing, err := fileRepo.GetByOwnerAndName(ctx, owner.ID, item.name)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.log.Error(ctx, "file lookup failed", "name", item.name, "error", err)
		item.rejected = &RejectedFile{Name: item.name, Reason: ReasonInternalError}
		return
	}

	var (
		file       *models.File
		versionID  string
		newFile    = existing == nil
		newVersion = true
	)

	if newFile {
		status := models.StatusPrivate
		if owner.PrefPublic {
			status = models.StatusPublic
		}
		file = &models.File{
			ID:         uuid.NewString(),
			UserID:     owner.ID,
			Name:       item.name,
			Status:     status,
			Expiration: opts.Expiration,
		}
		versionID = uuid.NewString()
	} else {
		file = existing
		if owner.PrefVersions {
			versionID = uuid.NewString()
		} else {
			newest, err := s.repomanager.Versions(s.db).Newest(ctx, file.ID)
			if err != nil {
				s.log.Error(ctx, "version lookup failed", "file_id", file.ID, "error", err)
				item.rejected = &RejectedFile{Name: item.name, Reason: ReasonInternalError}
				return
			}
			versionID = newest.ID
			newVersion = false
		}
	}

	object := versionID + item.ext
	if err := s.store.Put(ctx, owner.ID, file.ID, object, item.data); err != nil {
		s.log.Error(ctx, "object store write failed", "file_id", file.ID, "error", err)
		item.rejected = &RejectedFile{Name: item.name, Reason: ReasonInternalError}
		return
	}

	version := &models.Version{
		ID:        versionID,
		FileID:    file.ID,
		Digest:    item.digest,
		Size:      int64(len(item.data)),
		Encrypted: item.encrypted,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		fileTx := s.repomanager.Files(tx)
		versionTx := s.repomanager.Versions(tx)

		if newFile {
			if err := fileTx.Create(ctx, file); err != nil {
				return err
			}
			return versionTx.Create(ctx, version)
		}
		if newVersion {
			if err := versionTx.Create(ctx, version); err != nil {
				return err
			}
		} else {
			if err := versionTx.UpdateInPlace(ctx, version); err != nil {
				return err
			}
		}
		return fileTx.Touch(ctx, file.ID, opts.Expiration)
	})
	if err != nil {
		s.log.Error(ctx, "ledger transaction failed", "file_id", file.ID, "error", err)
		if newVersion {
			// The object belongs to no committed version; remove it.
			if delErr := s.store.Delete(ctx, owner.ID, file.ID, object); delErr != nil {
				s.log.Warn(ctx, "orphan object cleanup failed", "file_id", file.ID, "error", delErr)
			}
		}
		item.rejected = &RejectedFile{Name: item.name, Reason: ReasonInternalError}
		return
	}

	if opts.Expiration != nil {
		file.Expiration = opts.Expiration
	}
	item.result = s.buildResult(ctx, item, file, version, owner)

	if !newFile {
		s.fanout.Fanout(ctx, file)
	}

	if opts.Shorten && s.shortener != nil {
		s.shorten(ctx, file, item.result)
	}

	s.log.Info(ctx, "file stored",
		"file_id", file.ID, "version_id", version.ID, "size", version.Size, "digest", version.Digest)
}

func (s *UploadService) buildResult(ctx context.Context, item *pipelineItem, file *models.File, version *models.Version, owner *models.User) *FileResult {
	status := file.Status
	var shares []*ShareTarget
	targets, err := s.repomanager.Shares(s.db).ListByFile(ctx, file.ID)
	if err != nil {
		s.log.Warn(ctx, "share lookup failed", "file_id", file.ID, "error", err)
	} else if len(targets) > 0 {
		status = models.StatusShared
		shares = shareTargets(targets)
	}

	var history []*VersionInfo
	versions, err := s.repomanager.Versions(s.db).ListByFile(ctx, file.ID)
	if err != nil {
		s.log.Warn(ctx, "version lookup failed", "file_id", file.ID, "error", err)
	} else {
		for _, v := range versions {
			history = append(history, &VersionInfo{
				ID: v.ID, Digest: v.Digest, Size: v.Size, Encrypted: v.Encrypted,
				Path:      versionPath(s.publicBaseURL, file, v.ID, owner.PrefExtension),
				CreatedAt: v.CreatedAt,
			})
		}
	}

	return &FileResult{
		FileID:     file.ID,
		VersionID:  version.ID,
		Name:       file.Name,
		Type:       item.mimeType,
		Digest:     version.Digest,
		Size:       version.Size,
		Owner:      owner.ID,
		Status:     status,
		AccessPath: versionPath(s.publicBaseURL, file, version.ID, owner.PrefExtension),
		Expiration: file.Expiration,
		Shares:     shares,
		Versions:   history,
	}
}

func (s *UploadService) shorten(ctx context.Context, file *models.File, result *FileResult) {
	slug, err := s.shortener.Shorten(ctx, result.AccessPath)
	if err != nil {
		s.log.Warn(ctx, "link shortening failed", "file_id", file.ID, "error", err)
		return
	}
	if err := s.repomanager.Files(s.db).UpdateSlug(ctx, file.ID, slug); err != nil {
		s.log.Warn(ctx, "slug update failed", "file_id", file.ID, "error", err)
		return
	}
	result.ShortLink = slug
}

// resolveName combines the declared base name with the detected extension
// and bounds the result. The extension survives truncation.
func resolveName(declaredName, ext string) string {
	base := filepath.Base(declaredName)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	max := maxFileNameLen - len(ext)
	if max < 1 {
		max = 1
	}
	if len(base) > max {
		base = base[:max]
	}
	return base + ext
}
