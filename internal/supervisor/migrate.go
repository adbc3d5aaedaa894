package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
)

// renameBoardDir moves boards/{oldAddress} to boards/{newAddress} on disk,
// the supervisor's half of a worker's address migration protocol.
func renameBoardDir(configDir, oldAddress, newAddress string) error {
	oldDir := filepath.Join(configDir, "boards", oldAddress)
	newDir := filepath.Join(configDir, "boards", newAddress)

	if _, err := os.Stat(newDir); err == nil {
		return fmt.Errorf("supervisor: migration target %s already exists", newDir)
	}
	if err := os.Rename(oldDir, newDir); err != nil {
		return fmt.Errorf("supervisor: renaming board directory %s -> %s: %w", oldDir, newDir, err)
	}
	return nil
}
