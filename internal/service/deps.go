package service

import (
	"context"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
)

// OAuthProvider trades authorization codes and refresh tokens for user
// token sets. Implemented by *auth.GitHubProvider.
type OAuthProvider interface {
	Exchange(ctx context.Context, code string) (*auth.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error)
}

// AppSigner signs GitHub App assertions. Implemented by *auth.AppSigner.
type AppSigner interface {
	Sign() (github.AppAssertion, error)
}

// GitHubAPI is the subset of the GitHub REST API the services call.
// Implemented by *github.Client.
type GitHubAPI interface {
	GetAuthenticatedUser(ctx context.Context, token github.UserToken) (*github.User, error)
	ListUserInstallations(ctx context.Context, token github.UserToken) ([]github.Installation, error)
	CreateInstallationToken(ctx context.Context, assertion github.AppAssertion, installationID int64) (*github.AccessToken, error)
	ListInstallationRepositories(ctx context.Context, token github.InstallationToken) ([]github.Repository, error)
	CreateIssue(ctx context.Context, token github.UserToken, owner, repo string, request github.CreateIssueRequest) (*github.Issue, error)
}

// IssueWriter generates issue bodies. Implemented by *inference.Client.
type IssueWriter interface {
	GenerateIssueBody(ctx context.Context, template, title, description, style string, sections []string) (string, error)
}
