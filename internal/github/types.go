package github

import "time"

// UserToken is an OAuth access token issued to a user.
type UserToken string

// AppAssertion is a signed JWT identifying the GitHub App itself.
type AppAssertion string

// InstallationToken is an access token scoped to one App installation.
type InstallationToken string

func (t UserToken) authorization() string         { return "Bearer " + string(t) }
func (t AppAssertion) authorization() string      { return "Bearer " + string(t) }
func (t InstallationToken) authorization() string { return "Bearer " + string(t) }

// credential is implemented by the three token types above.
type credential interface {
	authorization() string
}

// User is the subset of GET /user this service needs.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Account is the owner of an installation or repository.
type Account struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"` // "User" or "Organization"
}

// Installation is a GitHub App installation reachable by a user.
type Installation struct {
	ID      int64   `json:"id"`
	AppID   int64   `json:"app_id"`
	Account Account `json:"account"`
}

// Repository is a repository visible under an installation token.
type Repository struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	Private  bool    `json:"private"`
	Owner    Account `json:"owner"`
}

// AccessToken is the response of the installation-token endpoint.
type AccessToken struct {
	Token     InstallationToken `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// CreateIssueRequest contains the fields for creating a new issue.
type CreateIssueRequest struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Issue is the subset of the created issue this service returns.
type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

type installationsPage struct {
	TotalCount    int            `json:"total_count"`
	Installations []Installation `json:"installations"`
}

type repositoriesPage struct {
	TotalCount   int          `json:"total_count"`
	Repositories []Repository `json:"repositories"`
}
