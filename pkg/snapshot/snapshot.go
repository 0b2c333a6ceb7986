// Package snapshot is the local durable store for wizard recovery state: a
// single JSON record per storage key with a saved-at timestamp and a
// freshness window. Backed by sqlite so partially written state never
// survives a crash.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultKey is the fixed storage key for the intake wizard.
const DefaultKey = "intake_wizard"

// DefaultFreshness is how long a snapshot stays restorable. Anything older is
// never offered.
const DefaultFreshness = 24 * time.Hour

type Store struct {
	sql *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  storage_key TEXT PRIMARY KEY,
  payload     TEXT NOT NULL,
  saved_at    DATETIME NOT NULL
);
	`); err != nil {
		return nil, err
	}
	return &Store{sql: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Put replaces the record under key.
func (s *Store) Put(ctx context.Context, key string, payload []byte, savedAt time.Time) error {
	_, err := s.sql.ExecContext(ctx,
		`INSERT INTO snapshots(storage_key, payload, saved_at) VALUES(?,?,?)
		 ON CONFLICT(storage_key) DO UPDATE SET payload=excluded.payload, saved_at=excluded.saved_at`,
		key, string(payload), savedAt.UTC().Format(time.RFC3339))
	return err
}

// Get returns the record under key. ok is false when no record exists.
func (s *Store) Get(ctx context.Context, key string) (payload []byte, savedAt time.Time, ok bool, err error) {
	var body, savedAtStr string
	row := s.sql.QueryRowContext(ctx, `SELECT payload, saved_at FROM snapshots WHERE storage_key = ?`, key)
	if err := row.Scan(&body, &savedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}
	if t, perr := time.Parse(time.RFC3339, savedAtStr); perr == nil {
		savedAt = t
	}
	return []byte(body), savedAt, true, nil
}

// Clear removes the record under key. Clearing a missing key is not an error.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.sql.ExecContext(ctx, `DELETE FROM snapshots WHERE storage_key = ?`, key)
	return err
}

// Fresh is the freshness predicate: a snapshot saved longer than window ago
// is stale and must not be restored.
func Fresh(savedAt, now time.Time, window time.Duration) bool {
	if savedAt.IsZero() {
		return false
	}
	return now.Sub(savedAt) < window
}
