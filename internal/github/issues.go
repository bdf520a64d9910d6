package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// CreateIssue opens an issue in owner/repo on behalf of the token's user.
func (c *Client) CreateIssue(ctx context.Context, token UserToken, owner, repo string, request CreateIssueRequest) (*Issue, error) {
	if owner == "" || repo == "" {
		return nil, errors.New("github: owner and repo are required")
	}
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, token, http.MethodPost, path, request, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}
