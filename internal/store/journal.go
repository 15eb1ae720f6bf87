package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// Resolution is one journaled resolution.
type Resolution struct {
	ID        int64
	Package   string
	Base      string
	Artifact  string
	Kind      string
	Action    string
	Displaced string
	Backup    string
	Undone    bool
	CreatedAt time.Time
}

// Record journals a terminal resolution, copying the displaced file
// into the backup directory first. It satisfies resolve.Journal. A
// displaced file that no longer exists is recorded without a backup.
func (s *Store) Record(pair resolve.Pair, action resolve.Action, displaced string) error {
	backup := ""
	if _, err := os.Lstat(displaced); err == nil {
		if err := os.MkdirAll(s.backupDir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		backup = filepath.Join(s.backupDir,
			fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(displaced)))
		if err := resolve.CopyFile(displaced, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", displaced, err)
		}
	}

	query := `
		INSERT INTO resolutions
		(package, base_path, artifact_path, kind, action, displaced_path, backup_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		pair.Package,
		pair.Base,
		pair.Artifact,
		pair.Kind.String(),
		string(action),
		displaced,
		backup,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record resolution for %s: %w", pair.Base, err)
	}
	return nil
}

// ListResolutions returns the journal, newest first.
func (s *Store) ListResolutions() ([]*Resolution, error) {
	query := `
		SELECT id, package, base_path, artifact_path, kind, action,
		       displaced_path, backup_path, undone, created_at
		FROM resolutions
		ORDER BY id DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*Resolution
	for rows.Next() {
		r, err := scanResolution(rows.Scan)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, r)
	}
	return resolutions, rows.Err()
}

// GetResolution retrieves one journal entry by ID.
func (s *Store) GetResolution(id int64) (*Resolution, error) {
	query := `
		SELECT id, package, base_path, artifact_path, kind, action,
		       displaced_path, backup_path, undone, created_at
		FROM resolutions
		WHERE id = ?
	`
	row := s.db.QueryRow(query, id)
	r, err := scanResolution(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution %d not found", id)
	}
	return r, err
}

// markUndone flags a journal entry as reversed.
func (s *Store) markUndone(id int64) error {
	_, err := s.db.Exec("UPDATE resolutions SET undone = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark resolution %d undone: %w", id, err)
	}
	return nil
}

func scanResolution(scan func(...interface{}) error) (*Resolution, error) {
	var r Resolution
	var createdAt string
	err := scan(&r.ID, &r.Package, &r.Base, &r.Artifact, &r.Kind, &r.Action,
		&r.Displaced, &r.Backup, &r.Undone, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &r, nil
}
