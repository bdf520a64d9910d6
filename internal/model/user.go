// Package model defines the data structures used throughout the application.
package model

import "time"

// User is one row per GitHub identity.
//
// GitHubID is the natural key: every lookup goes through it and the store
// enforces that at most one row exists per GitHubID. ID is our own xid,
// generated once on first login and never changed afterwards.
//
// The token fields hold the OAuth credential issued by the last successful
// handshake. A re-login replaces all four of them together.
// A zero expiry means GitHub did not report one (non-expiring token).
type User struct {
	ID                    string    `json:"id"`
	GitHubID              int64     `json:"githubId"`
	Username              string    `json:"username"`
	AccessToken           string    `json:"-"`
	AccessTokenExpiresAt  time.Time `json:"-"`
	RefreshToken          string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// AccessTokenExpired reports whether the access token is expired, or will
// be within margin of now.
func (u *User) AccessTokenExpired(now time.Time, margin time.Duration) bool {
	if u.AccessTokenExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(u.AccessTokenExpiresAt)
}

// CanRefresh reports whether the stored refresh token is usable at now.
func (u *User) CanRefresh(now time.Time) bool {
	if u.RefreshToken == "" {
		return false
	}
	return u.RefreshTokenExpiresAt.IsZero() || now.Before(u.RefreshTokenExpiresAt)
}
