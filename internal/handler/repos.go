package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
)

// RepoLister lists the repositories the GitHub App can reach for a user.
type RepoLister interface {
	ListRepositories(ctx context.Context, githubUserID int64) (*service.RepoListing, error)
}

type RepoHandler struct {
	repos  RepoLister
	logger *slog.Logger
}

func NewRepoHandler(repos RepoLister, logger *slog.Logger) *RepoHandler {
	return &RepoHandler{repos: repos, logger: logger}
}

// RepoListResponse is the body of POST /repos. FailedInstallations holds
// the ids of installations whose repositories could not be listed.
type RepoListResponse struct {
	Repos               []model.Repository `json:"repos"`
	FailedInstallations []int64            `json:"failed_installations"`
}

// HandleListRepos lists repositories across all of the user's installations.
//
// HTTP: POST /repos
func (h *RepoHandler) HandleListRepos(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	listing, err := h.repos.ListRepositories(r.Context(), int64(req.UserID))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := RepoListResponse{
		Repos:               listing.Repos,
		FailedInstallations: listing.FailedInstallations,
	}
	if resp.Repos == nil {
		resp.Repos = []model.Repository{}
	}
	if resp.FailedInstallations == nil {
		resp.FailedInstallations = []int64{}
	}

	writeJSON(w, http.StatusOK, resp)
}
