package services

// Shared test doubles: an in-memory repository manager, a memory-backed
// content store, and a no-op logger. The *sql.DB handed to services is a
// sqlmock instance that only has to satisfy Begin/Commit pairs opened by
// dbx.WithTx.

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	filesrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	notificationsrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/notifications"
	refreshtokensrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/refreshtokens"
	sharesrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/shares"
	usersrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	versionsrepo "github.com/dmitrijs2005/filekeeper/internal/server/repositories/versions"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// expectTx registers n Begin/Commit pairs on the mock.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- content store ---

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	usage   int64

	putErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) key(userID, fileID, object string) string {
	return userID + "/" + fileID + "/" + object
}

func (s *memStore) Put(ctx context.Context, userID, fileID, object string, data []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[s.key(userID, fileID, object)] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, userID, fileID, object string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[s.key(userID, fileID, object)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return data, nil
}

func (s *memStore) Delete(ctx context.Context, userID, fileID, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, s.key(userID, fileID, object))
	return nil
}

func (s *memStore) DeleteFile(ctx context.Context, userID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := userID + "/" + fileID + "/"
	for k := range s.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *memStore) Usage(ctx context.Context, userID string) (int64, error) {
	return s.usage, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// --- repositories ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) { f.users[u.ID] = u }

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeFilesRepo struct {
	mu    sync.Mutex
	files map[string]*models.File

	createErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{files: map[string]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now
	f.files[file.ID] = file
	return nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFilesRepo) GetByOwnerAndName(ctx context.Context, userID, name string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.UserID == userID && file.Name == name {
			return file, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFilesRepo) ListByOwner(ctx context.Context, userID string) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.File
	for _, file := range f.files {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeFilesRepo) Touch(ctx context.Context, id string, expiration *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	file.UpdatedAt = time.Now()
	if expiration != nil {
		file.Expiration = expiration
	}
	return nil
}

func (f *fakeFilesRepo) UpdateSlug(ctx context.Context, id, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	file.Slug = slug
	return nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.files, id)
	return nil
}

type fakeVersionsRepo struct {
	mu       sync.Mutex
	versions []*models.Version

	createErr error
}

func newFakeVersionsRepo() *fakeVersionsRepo { return &fakeVersionsRepo{} }

func (f *fakeVersionsRepo) Create(ctx context.Context, v *models.Version) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v.CreatedAt = time.Now()
	f.versions = append(f.versions, v)
	return nil
}

func (f *fakeVersionsRepo) UpdateInPlace(ctx context.Context, v *models.Version) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.versions {
		if existing.ID == v.ID {
			existing.Digest = v.Digest
			existing.Size = v.Size
			existing.Encrypted = v.Encrypted
			existing.CreatedAt = time.Now()
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeVersionsRepo) Newest(ctx context.Context, fileID string) (*models.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *models.Version
	for _, v := range f.versions {
		if v.FileID != fileID {
			continue
		}
		if newest == nil || v.CreatedAt.After(newest.CreatedAt) {
			newest = v
		}
	}
	if newest == nil {
		return nil, common.ErrorNotFound
	}
	return newest, nil
}

func (f *fakeVersionsRepo) GetByID(ctx context.Context, id string) (*models.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeVersionsRepo) ListByFile(ctx context.Context, fileID string) ([]*models.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Version
	for _, v := range f.versions {
		if v.FileID == fileID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeVersionsRepo) byFile(fileID string) []*models.Version {
	out, _ := f.ListByFile(context.Background(), fileID)
	return out
}

type fakeSharesRepo struct {
	mu     sync.Mutex
	shares []*models.Share
	users  *fakeUsersRepo
}

func newFakeSharesRepo(users *fakeUsersRepo) *fakeSharesRepo {
	return &fakeSharesRepo{users: users}
}

func (f *fakeSharesRepo) Upsert(ctx context.Context, share *models.Share) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shares {
		if s.FileID == share.FileID && s.UserID == share.UserID {
			s.Status = share.Status
			return nil
		}
	}
	f.shares = append(f.shares, share)
	return nil
}

func (f *fakeSharesRepo) Delete(ctx context.Context, fileID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.shares {
		if s.FileID == fileID && s.UserID == userID {
			f.shares = append(f.shares[:i], f.shares[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeSharesRepo) ListByFile(ctx context.Context, fileID string) ([]*models.ShareWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ShareWithUser
	for _, s := range f.shares {
		if s.FileID != fileID {
			continue
		}
		u, err := f.users.GetByID(ctx, s.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.ShareWithUser{Share: *s, User: *u})
	}
	return out, nil
}

func (f *fakeSharesRepo) Exists(ctx context.Context, fileID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shares {
		if s.FileID == fileID && s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotificationsRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification

	createErr error
}

func newFakeNotificationsRepo() *fakeNotificationsRepo { return &fakeNotificationsRepo{} }

func (f *fakeNotificationsRepo) Create(ctx context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken

	findErr   error
	createErr error
	delErr    error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &models.RefreshToken{
		UserID: userID, Token: token, Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

// --- repository manager ---

type fakeRepoManager struct {
	users         *fakeUsersRepo
	files         *fakeFilesRepo
	versions      *fakeVersionsRepo
	shares        *fakeSharesRepo
	notifications *fakeNotificationsRepo
	refresh       *fakeRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	users := newFakeUsersRepo()
	return &fakeRepoManager{
		users:         users,
		files:         newFakeFilesRepo(),
		versions:      newFakeVersionsRepo(),
		shares:        newFakeSharesRepo(users),
		notifications: newFakeNotificationsRepo(),
		refresh:       newFakeRefreshRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *fakeRepoManager) Files(dbx.DBTX) filesrepo.Repository          { return m.files }
func (m *fakeRepoManager) Versions(dbx.DBTX) versionsrepo.Repository    { return m.versions }
func (m *fakeRepoManager) Shares(dbx.DBTX) sharesrepo.Repository        { return m.shares }
func (m *fakeRepoManager) Notifications(dbx.DBTX) notificationsrepo.Repository {
	return m.notifications
}
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.refresh }
