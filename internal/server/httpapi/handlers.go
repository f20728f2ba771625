package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// parts spill to disk.
const maxUploadMemory = 32 << 20

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, map[string]string{"id": user.ID, "email": user.Email})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// handleUpload accepts a multipart batch. Form fields:
//
//	files       one or more file parts
//	shorten     "true" to request short links
//	encryption  "true" when payloads are client-encrypted
//	compression "true" to recompress recognized images
//	expiration  RFC 3339 timestamp applied to each touched file
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	opts := services.UploadOptions{
		Shorten:         parseBool(r.FormValue("shorten")),
		ClientEncrypted: parseBool(r.FormValue("encryption")),
		Compress:        parseBool(r.FormValue("compression")),
	}
	if v := r.FormValue("expiration"); v != "" {
		exp, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
			return
		}
		opts.Expiration = &exp
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	uploads := make([]*services.FileUpload, 0, len(parts))
	for _, part := range parts {
		data, err := readPart(part)
		if err != nil {
			writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
			return
		}
		uploads = append(uploads, &services.FileUpload{Name: part.Filename, Data: data})
	}

	res, err := s.uploads.Upload(r.Context(), userIDFrom(r.Context()), uploads, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success:  res.Success,
		Reason:   res.Reason,
		Data:     res.Stored,
		Rejected: res.Rejected,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, list)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	versionID := trimExtension(chi.URLParam(r, "versionID"))

	data, name, mimeType, err := s.files.Download(r.Context(), userIDFrom(r.Context()), fileID, versionID)
	if err != nil {
		writeError(w, err)
		return
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.files.Delete(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, nil)
}

type shareRequest struct {
	Permission string `json:"permission"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	err := s.files.Share(r.Context(), userIDFrom(r.Context()),
		chi.URLParam(r, "fileID"), chi.URLParam(r, "userID"), req.Permission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, nil)
}

func (s *Server) handleUnshare(w http.ResponseWriter, r *http.Request) {
	err := s.files.Unshare(r.Context(), userIDFrom(r.Context()),
		chi.URLParam(r, "fileID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, nil)
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.Notifications(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, notificationResponse{
			ID: n.ID, Title: n.Title, Message: n.Message, Read: n.Read, CreatedAt: n.CreatedAt,
		})
	}
	writeData(w, out)
}

func (s *Server) handleNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.files.MarkNotificationsRead(r.Context(), userIDFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, nil)
}

// --- helpers ---

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func readPart(part *multipart.FileHeader) ([]byte, error) {
	f, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.ErrorValidation
	}
	return data, nil
}

// trimExtension drops the presentation suffix access paths may carry;
// version IDs themselves never contain a dot.
func trimExtension(versionID string) string {
	for i := len(versionID) - 1; i >= 0; i-- {
		if versionID[i] == '.' {
			return versionID[:i]
		}
	}
	return versionID
}
