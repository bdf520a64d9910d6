package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "user not found with id 42"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Request field at fault, for validation errors
}

// MessageResponse is the body of endpoints that only confirm success.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping pairs an error kind with its status and machine-readable code.
var errorMapping = []struct {
	kind   error
	status int
	code   string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUpstreamAuth, http.StatusUnauthorized, "upstream_auth_error"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{apperror.ErrPersistence, http.StatusInternalServerError, "persistence_error"},
	{apperror.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"},
	{apperror.ErrInferenceUnavailable, http.StatusServiceUnavailable, "inference_unavailable"},
}

// writeError maps a domain error to an HTTP status, logs it, and sends it.
//
// errors.As walks the whole chain, so a service may wrap the AppError:
//
//	fmt.Errorf("service/lingo: storing %q: %w", name, apperror.Persistence(...))
//
// The kind of the outermost AppError decides the status. Unknown errors become a generic 500. Internal details (SQL, paths,
// upstream bodies) never reach the client; they go to the log.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorMapping {
			if appErr.Err == m.kind {
				logFailure(logger, r, m.status, err)
				writeJSON(w, m.status, ErrorResponse{
					Error:   m.code,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	logFailure(logger, r, http.StatusInternalServerError, err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func logFailure(logger *slog.Logger, r *http.Request, status int, err error) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
}
