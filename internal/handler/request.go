package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
)

// maxBodyBytes caps request bodies; issue previews are the largest.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst. Malformed, empty or
// oversized bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return apperror.ValidationFailed("", "request body is required")
	case errors.As(err, &maxErr):
		return apperror.ValidationFailed("", fmt.Sprintf("request body must be at most %d bytes", maxBodyBytes))
	case errors.As(err, &typeErr):
		return apperror.ValidationFailed(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
	default:
		var fieldErr *userIDError
		if errors.As(err, &fieldErr) {
			return apperror.ValidationFailed("user_id", "user_id must be a GitHub user id")
		}
		return apperror.ValidationFailed("", "request body must be valid JSON")
	}
}

// GitHubUserID is a GitHub numeric user id. Clients send it as a JSON
// number or as a decimal string.
type GitHubUserID int64

type userIDError struct{ raw string }

func (e *userIDError) Error() string { return "invalid user_id " + e.raw }

func (id *GitHubUserID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		*id = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return &userIDError{raw: raw}
	}
	*id = GitHubUserID(n)
	return nil
}

type userRequest struct {
	UserID GitHubUserID `json:"user_id"`
}
