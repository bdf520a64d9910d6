package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
)

// LingoStore creates and lists a user's writing-style profiles.
type LingoStore interface {
	CreateLingo(ctx context.Context, input service.CreateLingoInput) (*model.Lingo, error)
	ListLingos(ctx context.Context, githubUserID int64) ([]string, error)
}

// LingoHandler serves the lingo endpoints.
type LingoHandler struct {
	lingos LingoStore
	logger *slog.Logger
}

func NewLingoHandler(lingos LingoStore, logger *slog.Logger) *LingoHandler {
	return &LingoHandler{lingos: lingos, logger: logger}
}

type createLingoRequest struct {
	UserID   GitHubUserID `json:"user_id"`
	Name     string       `json:"name"`
	Style    string       `json:"style"`
	Sections []string     `json:"sections"`
}

// LingoListResponse lists lingo names in creation order.
type LingoListResponse struct {
	Lingos []string `json:"lingos"`
}

// HandleCreateLingo stores a lingo, replacing one with the same name.
//
// HTTP: POST /create_lingo
func (h *LingoHandler) HandleCreateLingo(w http.ResponseWriter, r *http.Request) {
	var req createLingoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lingo, err := h.lingos.CreateLingo(r.Context(), service.CreateLingoInput{
		GitHubUserID: int64(req.UserID),
		Name:         req.Name,
		Style:        req.Style,
		Sections:     req.Sections,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Lingo %s saved", lingo.Name),
	})
}

// HandleListLingos returns the names of the user's lingos.
//
// HTTP: POST /lingo
func (h *LingoHandler) HandleListLingos(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	names, err := h.lingos.ListLingos(r.Context(), int64(req.UserID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, LingoListResponse{Lingos: names})
}
