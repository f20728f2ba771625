package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/cryptox"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
)

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	u, err := s.Register(context.Background(), "Alice", "alice@example.com", "pa55word")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if u.PasswordHash == "pa55word" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if !cryptox.VerifyPassword("pa55word", u.PasswordHash) {
		t.Fatalf("stored hash does not verify")
	}
	if u.Role != models.RoleUser || !u.PrefVersions || u.PrefNotification != models.NotifyNecessary {
		t.Fatalf("unexpected defaults: %+v", u)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	if _, err := s.Register(context.Background(), "A", "dup@example.com", "pw"); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	_, err := s.Register(context.Background(), "B", "dup@example.com", "pw")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeRepoManager())

	if _, err := s.Register(context.Background(), "A", "", "pw"); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation for empty email, got %v", err)
	}
	if _, err := s.Register(context.Background(), "A", "a@b.c", ""); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation for empty password, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	if _, err := s.Register(context.Background(), "A", "a@example.com", "pw"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	pair, err := s.Login(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	if _, err := s.Register(context.Background(), "A", "a@example.com", "pw"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, err := s.Login(context.Background(), "a@example.com", "nope")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeRepoManager())

	_, err := s.Login(context.Background(), "ghost@example.com", "pw")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	if err := rm.refresh.Create(context.Background(), "u1", "refresh-xyz", time.Hour); err != nil {
		t.Fatalf("seed refresh token: %v", err)
	}

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair")
	}
	if pair.RefreshToken == "refresh-xyz" {
		t.Fatalf("refresh token must be rotated")
	}
	if _, err := rm.refresh.Find(context.Background(), "refresh-xyz"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("old refresh token must be deleted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := newUserService(t, db, rm)

	rm.refresh.tokens["old"] = &models.RefreshToken{
		UserID: "u1", Token: "old", Expires: time.Now().Add(-time.Minute),
	}

	_, err := s.RefreshToken(context.Background(), "old")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}
