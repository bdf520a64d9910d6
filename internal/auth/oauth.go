package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

// TokenSet is the user credential material GitHub returns from a code
// exchange or a refresh. A zero expiry means GitHub reported none.
type TokenSet struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// RejectedError means GitHub answered the token endpoint and refused the
// grant (bad or expired code, revoked refresh token). Any other error from
// Exchange or Refresh is a transport failure.
type RejectedError struct {
	Status      int    // HTTP status; GitHub often uses 200 for grant errors
	Code        string // OAuth error code, e.g. "bad_verification_code"
	Description string
}

func (e *RejectedError) Error() string {
	msg := e.Code
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if msg == "" {
		msg = "token request rejected"
	}
	return fmt.Sprintf("auth: GitHub OAuth (HTTP %d): %s", e.Status, msg)
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow. The browser obtains the code; this side performs the
// server-to-server exchange using the client secret, so the secret never
// reaches the browser.
type GitHubProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// ProviderOption configures a GitHubProvider.
type ProviderOption func(*GitHubProvider)

// WithOAuthBaseURL points the provider at another host serving
// /login/oauth/authorize and /login/oauth/access_token. Used for GitHub
// Enterprise and tests.
func WithOAuthBaseURL(baseURL string) ProviderOption {
	return func(p *GitHubProvider) {
		baseURL = strings.TrimRight(baseURL, "/")
		p.config.Endpoint = oauth2.Endpoint{
			AuthURL:   baseURL + "/login/oauth/authorize",
			TokenURL:  baseURL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
	}
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *GitHubProvider) {
		p.httpClient = client
	}
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// You get ClientID and ClientSecret from the GitHub App settings page
// (or https://github.com/settings/developers for an OAuth App).
func NewGitHubProvider(clientID, clientSecret string, opts ...ProviderOption) *GitHubProvider {
	endpoint := githubendpoint.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	p := &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Exchange trades an authorization code for a token set.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	token, err := p.config.Exchange(p.withClient(ctx), code)
	if err != nil {
		return nil, p.wrap("exchanging OAuth code", err)
	}
	return p.tokenSet(token), nil
}

// Refresh trades a refresh token for a new token set. GitHub rotates
// refresh tokens; if the response omits one, the returned set carries the
// old token with a zero RefreshTokenExpiresAt, meaning "unchanged".
func (p *GitHubProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if refreshToken == "" {
		return nil, &RejectedError{Code: "missing_refresh_token"}
	}
	// An already-expired token forces the source to hit the token endpoint.
	stale := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	token, err := p.config.TokenSource(p.withClient(ctx), stale).Token()
	if err != nil {
		return nil, p.wrap("refreshing OAuth token", err)
	}
	return p.tokenSet(token), nil
}

func (p *GitHubProvider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *GitHubProvider) wrap(action string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &RejectedError{
			Status:      status,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
		}
	}
	return fmt.Errorf("auth: %s: %w", action, err)
}

func (p *GitHubProvider) tokenSet(token *oauth2.Token) *TokenSet {
	set := &TokenSet{
		AccessToken:          token.AccessToken,
		AccessTokenExpiresAt: token.Expiry,
		RefreshToken:         token.RefreshToken,
	}
	if secs := extraSeconds(token.Extra("refresh_token_expires_in")); secs > 0 {
		set.RefreshTokenExpiresAt = p.now().Add(time.Duration(secs) * time.Second)
	}
	return set
}

// extraSeconds reads a numeric token field, which is a float64 in JSON
// responses and a string in form-encoded ones.
func extraSeconds(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case string:
		secs, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
