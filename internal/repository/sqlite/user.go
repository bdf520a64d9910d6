package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/xid"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// UpsertUserByExternalID inserts or updates a user keyed by GitHub ID.
//
// ONE STATEMENT, NO READ-THEN-WRITE:
// The write is a single INSERT ... ON CONFLICT(github_id) DO UPDATE. A
// transaction that first SELECTs and then writes holds a WAL read snapshot
// and fails with SQLITE_BUSY when another connection commits in between,
// which is exactly what two simultaneous logins do. A single statement
// takes the write lock up front and waits on busy_timeout instead.
//
// An existing row keeps its internal ID and created_at; username and all
// four token columns are overwritten with the new values.
func (db *DB) UpsertUserByExternalID(ctx context.Context, user *model.User) error {
	accessToken, err := db.seal(user.AccessToken)
	if err != nil {
		return apperror.Persistence("could not store credentials", err)
	}
	refreshToken, err := db.seal(user.RefreshToken)
	if err != nil {
		return apperror.Persistence("could not store credentials", err)
	}

	now := db.now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, username, access_token, access_token_expires_at,
		                    refresh_token, refresh_token_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (github_id) DO UPDATE SET
		   username                 = excluded.username,
		   access_token             = excluded.access_token,
		   access_token_expires_at  = excluded.access_token_expires_at,
		   refresh_token            = excluded.refresh_token,
		   refresh_token_expires_at = excluded.refresh_token_expires_at,
		   updated_at               = excluded.updated_at`,
		xid.New().String(),
		user.GitHubID,
		user.Username,
		accessToken,
		unixOrZero(user.AccessTokenExpiresAt),
		refreshToken,
		unixOrZero(user.RefreshTokenExpiresAt),
		now,
		now,
	)
	if err != nil {
		return apperror.Persistence("could not store user",
			fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err))
	}

	// id and created_at never change after the first insert, so reading
	// them back outside a transaction is safe.
	if err := db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		return apperror.Persistence("could not store user",
			fmt.Errorf("sqlite: reading back user (githubID=%d): %w", user.GitHubID, err))
	}
	user.UpdatedAt = now
	return nil
}

// FindUserByExternalID returns the user with the given GitHub ID.
// Returns apperror.ErrNotFound if there is none.
func (db *DB) FindUserByExternalID(ctx context.Context, githubID int64) (*model.User, error) {
	var u model.User
	var accessExpires, refreshExpires int64

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, username, access_token, access_token_expires_at,
		        refresh_token, refresh_token_expires_at, created_at, updated_at
		 FROM users WHERE github_id = ?`,
		githubID,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Username,
		&u.AccessToken,
		&accessExpires,
		&u.RefreshToken,
		&refreshExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(githubID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}

	u.AccessTokenExpiresAt = timeOrZero(accessExpires)
	u.RefreshTokenExpiresAt = timeOrZero(refreshExpires)

	if u.AccessToken, err = db.open(u.AccessToken); err != nil {
		return nil, fmt.Errorf("sqlite: opening access token for user %s: %w", u.ID, err)
	}
	if u.RefreshToken, err = db.open(u.RefreshToken); err != nil {
		return nil, fmt.Errorf("sqlite: opening refresh token for user %s: %w", u.ID, err)
	}

	return &u, nil
}

func (db *DB) seal(value string) (string, error) {
	if db.sealer == nil {
		return value, nil
	}
	return db.sealer.Seal(value)
}

func (db *DB) open(value string) (string, error) {
	if db.sealer == nil {
		return value, nil
	}
	return db.sealer.Open(value)
}
