// Package journal keeps a local SQLite history of handled commands.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voicepilot/internal/domain"
)

var ErrClosed = errors.New("journal is closed")

const schema = `
	CREATE TABLE IF NOT EXISTS commands (
		id TEXT PRIMARY KEY,
		transcript TEXT NOT NULL,
		intent TEXT NOT NULL,
		response TEXT NOT NULL,
		result TEXT NOT NULL,
		createdAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS commands_created_at ON commands(createdAt);
`

// Store implements ports.Journal.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the journal location under the user's config dir.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "voicepilot", "journal.sqlite")
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, entry domain.JournalEntry) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (id, transcript, intent, response, result, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Transcript, string(entry.Intent), entry.Response, string(entry.Result), unixFromTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transcript, intent, response, result, createdAt
		FROM commands
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var intent, result string
		var createdAt float64
		if err := rows.Scan(&e.ID, &e.Transcript, &intent, &e.Response, &result, &createdAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		e.Intent = domain.IntentKind(intent)
		e.Result = domain.Result(result)
		e.CreatedAt = timeFromUnix(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
