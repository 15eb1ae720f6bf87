// Package store keeps the resolution journal: every destructive
// resolution is recorded in SQLite with a backup copy of the displaced
// file, so `rpmconf history` can show what happened and `rpmconf undo`
// can reverse it.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store provides journal database operations.
type Store struct {
	db        *sql.DB
	backupDir string
}

// New opens (or creates) the journal database at dbPath. Displaced
// files are backed up under backupDir. Use ":memory:" for tests.
func New(dbPath, backupDir string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, backupDir: backupDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) createSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    package TEXT,
    base_path TEXT NOT NULL,
    artifact_path TEXT NOT NULL,
    kind TEXT NOT NULL,
    action TEXT NOT NULL,
    displaced_path TEXT NOT NULL,
    backup_path TEXT NOT NULL DEFAULT '',
    undone BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolutions_created ON resolutions(created_at);
`
