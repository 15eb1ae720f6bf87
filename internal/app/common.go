package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// getDBPath returns the journal database path, using the flag value or
// the default under ~/.rpmconf.
func getDBPath() (string, error) {
	if flagDBPath != "" {
		return flagDBPath, nil
	}

	dir, err := rpmconfDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rpmconf.db"), nil
}

// getBackupDir returns the directory displaced files are backed up to.
func getBackupDir() (string, error) {
	dir, err := rpmconfDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// rpmconfDir ensures and returns ~/.rpmconf.
func rpmconfDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".rpmconf")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create rpmconf directory: %w", err)
	}
	return dir, nil
}
