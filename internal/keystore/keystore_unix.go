//go:build !windows

package keystore

import (
	"fmt"
	"os"
	"path/filepath"
)

// userConfigBase is $XDG_CONFIG_HOME, or ~/.config when unset.
func userConfigBase() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config"), nil
}

// restrictFilePermissions resets the mode to 0600. os.WriteFile only applies
// its mode when it creates the file, so a credentials file left with a wider
// mode would otherwise keep it.
func restrictFilePermissions(path string) error {
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict credentials file: %w", err)
	}
	return nil
}
