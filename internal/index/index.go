// Package index persists the download index (site page → library file) and
// playback positions in a SQLite database.
// Writes go through a single connection; SQLite handles one writer at a time.
package index

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"soapmirror/internal/media"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// FileName is the database file inside the data directory.
const FileName = "index.db"

// Store is the SQLite-backed index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database in dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating index: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add records that origin is served by path, replacing any earlier mapping.
func (s *Store) Add(ctx context.Context, origin, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads(origin, path, added_at) VALUES(?,?,?)
		 ON CONFLICT(origin) DO UPDATE SET path=excluded.path`,
		origin, path, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("adding %s to index: %w", origin, err)
	}
	return nil
}

// Lookup returns the library path for origin.
func (s *Store) Lookup(ctx context.Context, origin string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT path FROM downloads WHERE origin = ?`, origin).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up %s: %w", origin, err)
	}
	return path, true, nil
}

// List returns all index entries, oldest first.
func (s *Store) List(ctx context.Context) ([]media.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT origin, path, added_at FROM downloads ORDER BY added_at, origin`)
	if err != nil {
		return nil, fmt.Errorf("listing index: %w", err)
	}
	defer rows.Close()

	var entries []media.IndexEntry
	for rows.Next() {
		var e media.IndexEntry
		var added string
		if err := rows.Scan(&e.Origin, &e.Path, &added); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		e.AddedAt, _ = time.Parse(time.RFC3339Nano, added)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes the entry for origin. Removing a missing entry is not an error.
func (s *Store) Remove(ctx context.Context, origin string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE origin = ?`, origin); err != nil {
		return fmt.Errorf("removing %s: %w", origin, err)
	}
	return nil
}

// SetPosition stores the playback position for a library path.
func (s *Store) SetPosition(ctx context.Context, path string, seconds float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO positions(path, seconds, updated_at) VALUES(?,?,?)
		 ON CONFLICT(path) DO UPDATE SET seconds=excluded.seconds, updated_at=excluded.updated_at`,
		path, seconds, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving position for %s: %w", path, err)
	}
	return nil
}

// Position returns the stored playback position for path, or 0.
func (s *Store) Position(ctx context.Context, path string) (float64, error) {
	var seconds float64
	err := s.db.QueryRowContext(ctx, `SELECT seconds FROM positions WHERE path = ?`, path).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading position for %s: %w", path, err)
	}
	return seconds, nil
}

// Prune removes entries whose file no longer exists according to exists.
// It returns the removed entries.
func (s *Store) Prune(ctx context.Context, exists func(path string) bool) ([]media.IndexEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var removed []media.IndexEntry
	for _, e := range entries {
		if exists(e.Path) {
			continue
		}
		if err := s.Remove(ctx, e.Origin); err != nil {
			return removed, err
		}
		removed = append(removed, e)
	}
	return removed, nil
}
