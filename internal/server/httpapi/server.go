// Package httpapi exposes the service over HTTP: authentication, multipart
// uploads, downloads, sharing, and the notification inbox.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// UserProvider is the slice of UserService the transport needs.
type UserProvider interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// FileProvider covers reads and management of stored files.
type FileProvider interface {
	List(ctx context.Context, userID string) ([]*services.FileInfo, error)
	Download(ctx context.Context, requesterID, fileID, versionID string) ([]byte, string, string, error)
	Delete(ctx context.Context, userID, fileID string) error
	Share(ctx context.Context, ownerID, fileID, targetUserID, permission string) error
	Unshare(ctx context.Context, ownerID, fileID, targetUserID string) error
	Notifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string) error
}

// UploadProvider runs the ingestion pipeline for one batch.
type UploadProvider interface {
	Upload(ctx context.Context, userID string, uploads []*services.FileUpload, opts services.UploadOptions) (*services.UploadResult, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	users     UserProvider
	files     FileProvider
	uploads   UploadProvider
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us UserProvider,
	fs FileProvider, ups UploadProvider, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		files:     fs,
		uploads:   ups,
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.handlePing)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)

		// public files are reachable without a session
		r.With(s.optionalAuthenticator).
			Get("/files/{fileID}/versions/{versionID}", s.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticator)

			r.Post("/files", s.handleUpload)
			r.Get("/files", s.handleList)
			r.Delete("/files/{fileID}", s.handleDelete)

			r.Put("/files/{fileID}/shares/{userID}", s.handleShare)
			r.Delete("/files/{fileID}/shares/{userID}", s.handleUnshare)

			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/read", s.handleNotificationsRead)
		})
	})

	return r
}

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
