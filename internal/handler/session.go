package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
)

// Handshaker completes the GitHub OAuth code exchange.
type Handshaker interface {
	CompleteOAuthHandshake(ctx context.Context, code string) (*service.HandshakeResult, error)
}

// SessionHandler runs the OAuth handshake and manages the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleAccessToken → exchange the OAuth code, store the user, set the cookie
//   - HandleLogout      → clear the session cookie
type SessionHandler struct {
	sessions Handshaker
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewSessionHandler(sessions Handshaker, tokens *auth.TokenService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens, logger: logger}
}

type accessTokenRequest struct {
	Code string `json:"code"`
}

// AccessTokenResponse is the body of a successful handshake.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	UserID      int64  `json:"user_id"`
}

// HandleAccessToken completes the OAuth handshake.
//
// HTTP: POST /access_token
//
// The client holds the returned user_id and sends it with every later
// request. The HttpOnly cookie lets the server check that claim.
func (h *SessionHandler) HandleAccessToken(w http.ResponseWriter, r *http.Request) {
	var req accessTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "code is required"))
		return
	}

	result, err := h.sessions.CompleteOAuthHandshake(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, r, result.SessionToken, h.tokens)

	h.logger.Info("user signed in",
		slog.String("username", result.Username),
		slog.Int64("github_id", result.GitHubID),
	)

	writeJSON(w, http.StatusOK, AccessTokenResponse{
		AccessToken: result.AccessToken,
		Username:    result.Username,
		UserID:      result.GitHubID,
	})
}

// HandleLogout clears the session cookie. The stored GitHub credentials
// are kept so the next handshake can replace them.
//
// HTTP: POST /logout
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}
