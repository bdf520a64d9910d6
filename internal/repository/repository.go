// Package repository declares the storage contracts used by the service layer.
//
// Every method is a single atomic operation. Implementations live in
// sub-packages (see repository/sqlite); services only see these interfaces.
package repository

import (
	"context"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// UserRepository stores users keyed by their GitHub identity.
type UserRepository interface {
	// UpsertUserByExternalID inserts the user, or replaces username and the
	// whole token set of the existing row with the same GitHubID. On return
	// user.ID and the timestamps reflect the stored row.
	UpsertUserByExternalID(ctx context.Context, user *model.User) error

	// FindUserByExternalID returns apperror.ErrNotFound if no row matches.
	FindUserByExternalID(ctx context.Context, githubID int64) (*model.User, error)
}

// LingoRepository stores style profiles.
type LingoRepository interface {
	// UpsertLingoForUser replaces the style and every section flag of the
	// lingo with the same (UserID, Name), or inserts it.
	UpsertLingoForUser(ctx context.Context, lingo *model.Lingo) error
	FindLingoByName(ctx context.Context, userID, name string) (*model.Lingo, error)
	ListLingoNamesForUser(ctx context.Context, userID string) ([]string, error)
}

// IssueRepository stores the issue audit trail and per-user counters.
type IssueRepository interface {
	InsertIssueRecord(ctx context.Context, record *model.IssueRecord) error
	IncrementUserStats(ctx context.Context, userID string, event model.StatsEvent) error
	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)
}

// Store is everything the service layer needs from persistence.
type Store interface {
	UserRepository
	LingoRepository
	IssueRepository
}
