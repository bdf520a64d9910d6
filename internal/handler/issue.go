package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
)

// IssueDrafter generates issue previews and files issues on GitHub.
type IssueDrafter interface {
	GenerateIssue(ctx context.Context, input service.GenerateIssueInput) (string, error)
	CreateIssue(ctx context.Context, input service.CreateIssueInput) (string, error)
}

// IssueHandler serves issue generation and creation.
//
// Field names follow the web client (issueTitle, issuePreview) rather than
// the snake_case used elsewhere.
type IssueHandler struct {
	issues IssueDrafter
	logger *slog.Logger
}

func NewIssueHandler(issues IssueDrafter, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, logger: logger}
}

type generateIssueRequest struct {
	UserID           GitHubUserID `json:"user_id"`
	IssueTitle       string       `json:"issueTitle"`
	IssueDescription string       `json:"issueDescription"`
	Lingo            string       `json:"lingo"`
}

type IssuePreviewResponse struct {
	IssuePreview string `json:"issuePreview"`
}

// HandleGenerateIssue drafts an issue body in the style of a lingo.
//
// HTTP: POST /generate_issue
func (h *IssueHandler) HandleGenerateIssue(w http.ResponseWriter, r *http.Request) {
	var req generateIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	preview, err := h.issues.GenerateIssue(r.Context(), service.GenerateIssueInput{
		GitHubUserID: int64(req.UserID),
		Title:        req.IssueTitle,
		Description:  req.IssueDescription,
		Lingo:        req.Lingo,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IssuePreviewResponse{IssuePreview: preview})
}

type createIssueRequest struct {
	UserID       GitHubUserID `json:"user_id"`
	Repository   string       `json:"repository"`
	Owner        string       `json:"owner"`
	IssueTitle   string       `json:"issueTitle"`
	IssuePreview string       `json:"issuePreview"`
}

type CreatedIssueResponse struct {
	HTMLURL string `json:"html_url"`
}

// HandleCreateIssue files the previewed issue on GitHub as the user.
//
// HTTP: POST /create_issue
func (h *IssueHandler) HandleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	url, err := h.issues.CreateIssue(r.Context(), service.CreateIssueInput{
		GitHubUserID: int64(req.UserID),
		Repository:   req.Repository,
		Owner:        req.Owner,
		Title:        req.IssueTitle,
		Body:         req.IssuePreview,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatedIssueResponse{HTMLURL: url})
}
