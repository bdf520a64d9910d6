// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go port, so the binary builds without cgo.
// Use ":memory:" as the path for tests; the pool is pinned to a single
// connection in that case because every new connection would otherwise see
// its own empty in-memory database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/model"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

// TokenSealer encrypts OAuth tokens before they reach disk.
// *secret.Sealer satisfies it.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Option configures a DB.
type Option func(*DB)

// WithTokenSealer makes the DB seal access and refresh tokens at rest.
func WithTokenSealer(s TokenSealer) Option {
	return func(db *DB) { db.sealer = s }
}

// WithClock overrides time.Now for timestamps. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn   *sql.DB
	sealer TokenSealer
	now    func() time.Time
}

// New opens the database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*DB, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// Pragmas in the DSN apply to every pooled connection, not just the first.
		// _txlock=immediate makes BeginTx take the write lock at BEGIN, so a
		// transaction waits on busy_timeout rather than failing on upgrade.
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a request is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// PingContext checks the database is reachable. Used by the health endpoint.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                       TEXT PRIMARY KEY,
			github_id                INTEGER NOT NULL UNIQUE,
			username                 TEXT NOT NULL,
			access_token             TEXT NOT NULL DEFAULT '',
			access_token_expires_at  INTEGER NOT NULL DEFAULT 0,
			refresh_token            TEXT NOT NULL DEFAULT '',
			refresh_token_expires_at INTEGER NOT NULL DEFAULT 0,
			created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// (user_id, name) is unique: a second create with the same name replaces.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS lingos (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			name       TEXT NOT NULL,
			style      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating lingos table: %w", err)
	}

	// One boolean column per section, named after the section key.
	for _, s := range model.AllSections {
		if err := db.addColumnIfNotExists("lingos", string(s.Key), "INTEGER NOT NULL DEFAULT 0"); err != nil {
			return fmt.Errorf("adding lingo section %s: %w", s.Key, err)
		}
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS issue_records (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			repository TEXT NOT NULL,
			owner      TEXT NOT NULL,
			url        TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_issue_records_user_id ON issue_records(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating issue_records table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_stats (
			user_id               TEXT PRIMARY KEY REFERENCES users(id),
			generations_attempted INTEGER NOT NULL DEFAULT 0,
			generations_succeeded INTEGER NOT NULL DEFAULT 0,
			creations_attempted   INTEGER NOT NULL DEFAULT 0,
			creations_succeeded   INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_stats table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// sectionColumns returns the section column names in AllSections order,
// joined for use in SQL.
func sectionColumns() string {
	cols := make([]string, len(model.AllSections))
	for i, s := range model.AllSections {
		cols[i] = string(s.Key)
	}
	return strings.Join(cols, ", ")
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
