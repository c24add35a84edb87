package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a persistent Store backed by SQLite.
// Timestamps are stored as Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path and
// initialises the schema. Use ":memory:" for an in-memory SQLite database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("throttle/store: open sqlite: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS throttle_entries (
			key           TEXT PRIMARY KEY,
			count         INTEGER NOT NULL DEFAULT 0,
			first_request INTEGER NOT NULL DEFAULT 0,
			last_request  INTEGER NOT NULL DEFAULT 0,
			blocked       INTEGER NOT NULL DEFAULT 0,
			blocked_until INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("throttle/store: create table: %w", err)
	}

	if _, err := db.Exec(
		`CREATE INDEX IF NOT EXISTS throttle_entries_last_request ON throttle_entries (last_request)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("throttle/store: create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the entry for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT count, first_request, last_request, blocked, blocked_until
		 FROM throttle_entries WHERE key = ?`, key,
	)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("throttle/store: get: %w", err)
	}
	return e, true, nil
}

// Put creates or replaces the entry for key.
func (s *SQLiteStore) Put(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO throttle_entries (key, count, first_request, last_request, blocked, blocked_until)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = excluded.count,
			first_request = excluded.first_request,
			last_request = excluded.last_request,
			blocked = excluded.blocked,
			blocked_until = excluded.blocked_until`,
		key, e.Count, toMillis(e.FirstRequest), toMillis(e.LastRequest), boolToInt(e.Blocked), toMillis(e.BlockedUntil),
	)
	if err != nil {
		return fmt.Errorf("throttle/store: put: %w", err)
	}
	return nil
}

// Delete removes the entry for the given key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM throttle_entries WHERE key = ?`, key)
	return err
}

// DeleteIdle removes entries last seen before cutoff.
func (s *SQLiteStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM throttle_entries WHERE last_request < ?`, toMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("throttle/store: delete idle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// List returns all stored entries.
func (s *SQLiteStore) List(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, count, first_request, last_request, blocked, blocked_until FROM throttle_entries`,
	)
	if err != nil {
		return nil, fmt.Errorf("throttle/store: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var (
			key                      string
			count                    int64
			first, last, blockedTill int64
			blocked                  bool
		)
		if err := rows.Scan(&key, &count, &first, &last, &blocked, &blockedTill); err != nil {
			return nil, fmt.Errorf("throttle/store: list: %w", err)
		}
		out[key] = Entry{
			Count:        count,
			FirstRequest: fromMillis(first),
			LastRequest:  fromMillis(last),
			Blocked:      blocked,
			BlockedUntil: fromMillis(blockedTill),
		}
	}
	return out, rows.Err()
}

// Clear removes all entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM throttle_entries`)
	return err
}

// Close closes the underlying SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEntry(row *sql.Row) (Entry, error) {
	var (
		count                    int64
		first, last, blockedTill int64
		blocked                  bool
	)
	if err := row.Scan(&count, &first, &last, &blocked, &blockedTill); err != nil {
		return Entry{}, err
	}
	return Entry{
		Count:        count,
		FirstRequest: fromMillis(first),
		LastRequest:  fromMillis(last),
		Blocked:      blocked,
		BlockedUntil: fromMillis(blockedTill),
	}, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
