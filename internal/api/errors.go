package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
	"github.com/lampgrid/lampgrid-core/internal/grid"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeConflict     = "conflict"
	ErrCodeBadGateway   = "bridge_unreachable"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeGridError maps grid package errors onto HTTP status codes.
// Unknown errors fall through to 500 with a generic message so internal
// details never leak to clients.
func writeGridError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, grid.ErrInvalidRef), errors.Is(err, grid.ErrNoTargets):
		writeBadRequest(w, err.Error())
	case errors.Is(err, grid.ErrUnknownBridge), errors.Is(err, grid.ErrUnknownTarget):
		writeNotFound(w, err.Error())
	case errors.Is(err, grid.ErrDuplicateBridge):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, grid.ErrUnreachableBridge):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	default:
		writeInternalError(w, "operation failed")
	}
}

// writeCommandError maps a failed bridge command onto an HTTP status.
// Bridge rejections of a missing resource become 404; every other
// rejection and all transport failures surface as 502 because the fault
// lies on the far side of the gateway.
func writeCommandError(w http.ResponseWriter, err error) {
	var apiErr *hue.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type == hue.CodeResourceUnavailable {
			writeNotFound(w, apiErr.Description)
			return
		}
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, apiErr.Description)
		return
	}

	var transportErr *hue.TransportError
	if errors.As(err, &transportErr) {
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "bridge did not respond")
		return
	}

	writeGridError(w, err)
}
