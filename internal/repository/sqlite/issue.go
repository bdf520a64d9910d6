package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// InsertIssueRecord writes the audit row for a filed issue.
func (db *DB) InsertIssueRecord(ctx context.Context, record *model.IssueRecord) error {
	record.ID = xid.New().String()
	record.CreatedAt = db.now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO issue_records (id, user_id, repository, owner, url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Repository,
		record.Owner,
		record.URL,
		record.CreatedAt,
	)
	if err != nil {
		return apperror.Persistence("could not record issue",
			fmt.Errorf("sqlite: inserting issue record for user %s: %w", record.UserID, err))
	}
	return nil
}

// IncrementUserStats applies one event to the user's counters in a single
// statement. The attempted counter always moves; the succeeded counter
// only when event.Succeeded is true.
func (db *DB) IncrementUserStats(ctx context.Context, userID string, event model.StatsEvent) error {
	var genAttempted, genSucceeded, createAttempted, createSucceeded int

	switch event.Kind {
	case model.StatsGeneration:
		genAttempted = 1
		if event.Succeeded {
			genSucceeded = 1
		}
	case model.StatsCreation:
		createAttempted = 1
		if event.Succeeded {
			createSucceeded = 1
		}
	default:
		return fmt.Errorf("sqlite: unknown stats kind %q", event.Kind)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, generations_attempted, generations_succeeded,
		                         creations_attempted, creations_succeeded)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   generations_attempted = generations_attempted + excluded.generations_attempted,
		   generations_succeeded = generations_succeeded + excluded.generations_succeeded,
		   creations_attempted   = creations_attempted + excluded.creations_attempted,
		   creations_succeeded   = creations_succeeded + excluded.creations_succeeded`,
		userID, genAttempted, genSucceeded, createAttempted, createSucceeded,
	)
	if err != nil {
		return apperror.Persistence("could not update statistics",
			fmt.Errorf("sqlite: incrementing stats for user %s: %w", userID, err))
	}
	return nil
}

// GetUserStats returns the counters of a user. A user with no recorded
// events gets all-zero stats rather than an error.
func (db *DB) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	stats := &model.UserStats{UserID: userID}

	err := db.conn.QueryRowContext(ctx,
		`SELECT generations_attempted, generations_succeeded, creations_attempted, creations_succeeded
		 FROM user_stats WHERE user_id = ?`,
		userID,
	).Scan(
		&stats.GenerationsAttempted,
		&stats.GenerationsSucceeded,
		&stats.CreationsAttempted,
		&stats.CreationsSucceeded,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: getting stats for user %s: %w", userID, err)
	}
	return stats, nil
}
