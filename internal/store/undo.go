package store

import (
	"fmt"
	"os"

	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// Undo reverses a journaled resolution by restoring the backed-up
// displaced file to its original path. For an install-artifact
// resolution the artifact is first recreated from the current base, so
// the conflict is fully reconstituted and a later run can pick it up
// again.
func (s *Store) Undo(id int64) (*Resolution, error) {
	r, err := s.GetResolution(id)
	if err != nil {
		return nil, err
	}
	if r.Undone {
		return nil, fmt.Errorf("resolution %d was already undone", id)
	}
	if r.Backup == "" {
		return nil, fmt.Errorf("resolution %d has no backup to restore", id)
	}
	if _, err := os.Lstat(r.Backup); err != nil {
		return nil, fmt.Errorf("backup for resolution %d is gone: %w", id, err)
	}

	if r.Action == string(resolve.ActionInstallArtifact) {
		// The artifact's content became the base; put it back
		// under its suffix before restoring the old base.
		if _, err := os.Lstat(r.Artifact); err != nil {
			if _, berr := os.Lstat(r.Base); berr == nil {
				if cerr := resolve.CopyFile(r.Base, r.Artifact); cerr != nil {
					return nil, fmt.Errorf("failed to recreate %s: %w", r.Artifact, cerr)
				}
			}
		}
	}

	if err := resolve.CopyFile(r.Backup, r.Displaced); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", r.Displaced, err)
	}

	if err := s.markUndone(id); err != nil {
		return nil, err
	}
	r.Undone = true
	return r, nil
}
