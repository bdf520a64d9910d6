package github

import (
	"context"
	"fmt"
	"net/http"
)

// ListUserInstallations lists the App installations the user behind token
// can access. All pages are fetched.
func (c *Client) ListUserInstallations(ctx context.Context, token UserToken) ([]Installation, error) {
	return collect(ctx, c, token, fmt.Sprintf("/user/installations?per_page=%d", perPage),
		func(p *installationsPage) []Installation { return p.Installations })
}

// CreateInstallationToken exchanges an App assertion for an access token
// scoped to installationID.
func (c *Client) CreateInstallationToken(ctx context.Context, assertion AppAssertion, installationID int64) (*AccessToken, error) {
	var token AccessToken
	path := fmt.Sprintf("/app/installations/%d/access_tokens", installationID)
	if err := c.do(ctx, assertion, http.MethodPost, path, nil, &token); err != nil {
		return nil, err
	}
	if token.Token == "" {
		return nil, fmt.Errorf("github: installation %d: empty access token in response", installationID)
	}
	return &token, nil
}

// ListInstallationRepositories lists every repository the installation
// token grants access to. All pages are fetched.
func (c *Client) ListInstallationRepositories(ctx context.Context, token InstallationToken) ([]Repository, error) {
	return collect(ctx, c, token, fmt.Sprintf("/installation/repositories?per_page=%d", perPage),
		func(p *repositoriesPage) []Repository { return p.Repositories })
}
