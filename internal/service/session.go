// Package service holds the business logic between the HTTP handlers and
// the store, GitHub, inference and mail clients:
//
//	Handler (HTTP) → Service (rules, orchestration) → Store / upstream clients
//
// Services never see HTTP. They return *apperror.AppError values that the
// handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/repository"
)

// refreshMargin is how close to expiry a stored access token may be
// before it is refreshed.
const refreshMargin = time.Minute

// SessionService owns the user's GitHub credentials: the OAuth handshake,
// credential lookup with refresh, and App installation tokens. No session
// state lives in memory; every call reads the store.
//
// TWO KINDS OF TOKEN:
// The session cookie is our own JWT. It only says which GitHub account the
// browser logged in as. The GitHub tokens stay server-side, sealed in the
// users table, and never reach the browser.
//
// CREDENTIAL RESOLUTION:
// 1. AuthorizeCaller checks the cookie's subject against the requested user.
// 2. The stored user is loaded by GitHub ID.
// 3. If the access token expires within refreshMargin, it is refreshed and
//    the new token set is written back before use.
// 4. The caller gets a token that is good for at least refreshMargin.
type SessionService struct {
	users    repository.UserRepository
	provider OAuthProvider
	github   GitHubAPI
	signer   AppSigner
	tokens   *auth.TokenService
	logger   *slog.Logger
	now      func() time.Time
}

func NewSessionService(
	users repository.UserRepository,
	provider OAuthProvider,
	gh GitHubAPI,
	signer AppSigner,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		provider: provider,
		github:   gh,
		signer:   signer,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// HandshakeResult is returned by CompleteOAuthHandshake. SessionToken is
// set as the HttpOnly session cookie; the rest is the response body.
type HandshakeResult struct {
	AccessToken  string
	Username     string
	GitHubID     int64
	SessionToken string
}

// CompleteOAuthHandshake exchanges code for a token set, looks up who it
// belongs to, and stores the user with the new credentials. A second
// handshake for the same GitHub account replaces the stored token set.
func (s *SessionService) CompleteOAuthHandshake(ctx context.Context, code string) (*HandshakeResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "code is required")
	}

	set, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, githubError("exchanging OAuth code", err)
	}

	identity, err := s.github.GetAuthenticatedUser(ctx, github.UserToken(set.AccessToken))
	if err != nil {
		return nil, githubError("fetching the authenticated user", err)
	}
	if identity.ID == 0 || identity.Login == "" {
		return nil, apperror.UpstreamUnavailable(0, "GitHub returned an incomplete user", nil)
	}

	user := &model.User{
		GitHubID:              identity.ID,
		Username:              identity.Login,
		AccessToken:           set.AccessToken,
		AccessTokenExpiresAt:  set.AccessTokenExpiresAt,
		RefreshToken:          set.RefreshToken,
		RefreshTokenExpiresAt: set.RefreshTokenExpiresAt,
	}
	if err := s.users.UpsertUserByExternalID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/session: storing user %d: %w", identity.ID, err)
	}

	session, err := s.tokens.Generate(strconv.FormatInt(identity.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("service/session: issuing session for user %d: %w", identity.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Username),
	)

	return &HandshakeResult{
		AccessToken:  set.AccessToken,
		Username:     identity.Login,
		GitHubID:     identity.ID,
		SessionToken: session,
	}, nil
}

// AuthorizeCaller rejects a request whose session cookie names a
// different GitHub user than githubUserID. Requests without a session are
// allowed and resolved by githubUserID alone.
func (s *SessionService) AuthorizeCaller(ctx context.Context, githubUserID int64) error {
	if githubUserID <= 0 {
		return apperror.ValidationFailed("user_id", "user_id is required")
	}
	subject, ok := auth.SubjectFromContext(ctx)
	if !ok {
		return nil
	}
	if subject != strconv.FormatInt(githubUserID, 10) {
		return apperror.Forbidden("session does not belong to this user")
	}
	return nil
}

// LookupUser authorizes the caller and loads the stored user without
// touching its credentials.
func (s *SessionService) LookupUser(ctx context.Context, githubUserID int64) (*model.User, error) {
	if err := s.AuthorizeCaller(ctx, githubUserID); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByExternalID(ctx, githubUserID)
	if err != nil {
		return nil, fmt.Errorf("service/session: loading user %d: %w", githubUserID, err)
	}
	return user, nil
}

// ResolveUser is LookupUser plus a usable access token (see EnsureFreshToken).
func (s *SessionService) ResolveUser(ctx context.Context, githubUserID int64) (*model.User, error) {
	user, err := s.LookupUser(ctx, githubUserID)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureFreshToken(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureFreshToken refreshes user's access token when it expires within
// refreshMargin, and stores the new token set. Tokens without an expiry
// are used as stored.
//
// WHY REFRESH EARLY?
// A token checked as valid can still expire while the request to GitHub is
// in flight. Refreshing a minute ahead keeps that window closed.
func (s *SessionService) EnsureFreshToken(ctx context.Context, user *model.User) error {
	now := s.now()
	if !user.AccessTokenExpired(now, refreshMargin) {
		return nil
	}
	if !user.CanRefresh(now) {
		return apperror.UpstreamAuth(0, "GitHub access token expired, sign in again", nil)
	}

	set, err := s.provider.Refresh(ctx, user.RefreshToken)
	if err != nil {
		var rejected *auth.RejectedError
		if errors.As(err, &rejected) {
			return apperror.UpstreamAuth(rejected.Status, "GitHub refused to refresh the access token, sign in again", err)
		}
		return githubError("refreshing the access token", err)
	}

	user.AccessToken = set.AccessToken
	user.AccessTokenExpiresAt = set.AccessTokenExpiresAt
	// A response without refresh_token carries the old one forward with no
	// expiry; the stored expiry still describes it and must be kept.
	if set.RefreshToken != "" {
		rotated := set.RefreshToken != user.RefreshToken
		user.RefreshToken = set.RefreshToken
		if rotated || !set.RefreshTokenExpiresAt.IsZero() {
			user.RefreshTokenExpiresAt = set.RefreshTokenExpiresAt
		}
	}
	if err := s.users.UpsertUserByExternalID(ctx, user); err != nil {
		return fmt.Errorf("service/session: storing refreshed token for user %d: %w", user.GitHubID, err)
	}

	s.logger.Info("access token refreshed", slog.String("userID", user.ID))
	return nil
}

// ResolveCredential returns a usable access token for githubUserID.
func (s *SessionService) ResolveCredential(ctx context.Context, githubUserID int64) (github.UserToken, error) {
	user, err := s.ResolveUser(ctx, githubUserID)
	if err != nil {
		return "", err
	}
	return github.UserToken(user.AccessToken), nil
}

// SignAppAssertion signs a fresh App assertion (valid ten minutes).
func (s *SessionService) SignAppAssertion() (github.AppAssertion, error) {
	assertion, err := s.signer.Sign()
	if err != nil {
		return "", fmt.Errorf("service/session: %w", err)
	}
	return assertion, nil
}

// MintInstallationToken exchanges assertion for a token scoped to one
// installation. The token is used for the current request only.
func (s *SessionService) MintInstallationToken(ctx context.Context, assertion github.AppAssertion, installationID int64) (github.InstallationToken, error) {
	token, err := s.github.CreateInstallationToken(ctx, assertion, installationID)
	if err != nil {
		return "", githubError(fmt.Sprintf("minting a token for installation %d", installationID), err)
	}
	return token.Token, nil
}
