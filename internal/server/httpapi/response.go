package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// Stable reason codes returned in error envelopes.
const (
	reasonSessionRequired = "session_required"
	reasonForbidden       = "forbidden"
	reasonNotFound        = "not_found"
	reasonAlreadyExists   = "already_exists"
	reasonInvalidRequest  = "invalid_request"
	reasonRefreshExpired  = "refresh_token_expired"
	reasonInternalError   = "internal_error"
)

// response is the JSON envelope every API endpoint answers with.
type response struct {
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
	Data     any    `json:"data,omitempty"`
	Rejected any    `json:"rejected,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Data: data})
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, response{Success: false, Reason: reason})
}

// writeError maps service-layer sentinel errors onto HTTP statuses and
// stable reason codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeReason(w, http.StatusUnauthorized, reasonSessionRequired)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeReason(w, http.StatusUnauthorized, reasonRefreshExpired)
	case errors.Is(err, common.ErrorForbidden):
		writeReason(w, http.StatusForbidden, reasonForbidden)
	case errors.Is(err, common.ErrorNotFound):
		writeReason(w, http.StatusNotFound, reasonNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeReason(w, http.StatusConflict, reasonAlreadyExists)
	case errors.Is(err, common.ErrorValidation):
		writeReason(w, http.StatusBadRequest, reasonInvalidRequest)
	default:
		writeReason(w, http.StatusInternalServerError, reasonInternalError)
	}
}
