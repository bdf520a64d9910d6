package github

import (
	"context"
	"net/http"
)

// GetAuthenticatedUser returns the user that token belongs to.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token UserToken) (*User, error) {
	var user User
	if err := c.do(ctx, token, http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
