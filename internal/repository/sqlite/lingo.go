package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
)

// UpsertLingoForUser inserts the lingo or replaces the one with the same
// (user_id, name). Every section flag is written, so the stored set always
// equals the submitted set.
func (db *DB) UpsertLingoForUser(ctx context.Context, lingo *model.Lingo) error {
	now := db.now()
	newID := xid.New().String()

	flags := make([]any, len(model.AllSections))
	setClauses := make([]string, len(model.AllSections))
	for i, s := range model.AllSections {
		flags[i] = lingo.Sections[s.Key]
		setClauses[i] = fmt.Sprintf("%s = excluded.%s", s.Key, s.Key)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(model.AllSections)), ", ")

	query := fmt.Sprintf(
		`INSERT INTO lingos (id, user_id, name, style, created_at, updated_at, %s)
		 VALUES (?, ?, ?, ?, ?, ?, %s)
		 ON CONFLICT (user_id, name) DO UPDATE SET
		   style = excluded.style, updated_at = excluded.updated_at, %s`,
		sectionColumns(), placeholders, strings.Join(setClauses, ", "),
	)

	args := append([]any{newID, lingo.UserID, lingo.Name, lingo.Style, now, now}, flags...)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Persistence("could not store lingo", fmt.Errorf("sqlite: beginning lingo upsert: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperror.Persistence("could not store lingo",
			fmt.Errorf("sqlite: upserting lingo %q for user %s: %w", lingo.Name, lingo.UserID, err))
	}

	// Read back the surviving row's id and created_at.
	if err := tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM lingos WHERE user_id = ? AND name = ?`,
		lingo.UserID, lingo.Name,
	).Scan(&lingo.ID, &lingo.CreatedAt); err != nil {
		return apperror.Persistence("could not store lingo",
			fmt.Errorf("sqlite: reading back lingo %q: %w", lingo.Name, err))
	}
	lingo.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return apperror.Persistence("could not store lingo", fmt.Errorf("sqlite: committing lingo upsert: %w", err))
	}
	return nil
}

// FindLingoByName returns the named lingo of a user, or apperror.ErrNotFound.
func (db *DB) FindLingoByName(ctx context.Context, userID, name string) (*model.Lingo, error) {
	var l model.Lingo
	flags := make([]bool, len(model.AllSections))

	dest := []any{&l.ID, &l.UserID, &l.Name, &l.Style, &l.CreatedAt, &l.UpdatedAt}
	for i := range flags {
		dest = append(dest, &flags[i])
	}

	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, user_id, name, style, created_at, updated_at, %s
		             FROM lingos WHERE user_id = ? AND name = ?`, sectionColumns()),
		userID, name,
	).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("lingo", name)
		}
		return nil, fmt.Errorf("sqlite: getting lingo %q for user %s: %w", name, userID, err)
	}

	l.Sections = model.NewSectionSet()
	for i, s := range model.AllSections {
		l.Sections[s.Key] = flags[i]
	}
	return &l, nil
}

// ListLingoNamesForUser returns the user's lingo names in creation order.
// A user without lingos gets an empty, non-nil slice.
func (db *DB) ListLingoNamesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM lingos WHERE user_id = ? ORDER BY created_at ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing lingos for user %s: %w", userID, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning lingo name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating lingo names: %w", err)
	}
	return names, nil
}
