//go:build windows

package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frigidsec/ctfadmin/internal/constants"
)

func TestRestrictFilePermissions_Windows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(`{"mongo_uri":"mongodb://x"}`), 0600))

	require.NoError(t, restrictFilePermissions(path))

	// Still readable and writable by the owner.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mongodb://x")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
}

func TestRestrictFilePermissions_Windows_NonExistentFile(t *testing.T) {
	err := restrictFilePermissions(filepath.Join(t.TempDir(), "nonexistent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set file security")
}

func TestGetConfigDir_Windows_APPDATA(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APPDATA", dir)

	configDir, err := getConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, constants.AppName), configDir)
}

func TestGetConfigDir_Windows_FallbackToHomeDir(t *testing.T) {
	t.Setenv("APPDATA", "")

	configDir, err := getConfigDir()
	require.NoError(t, err)

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "AppData", "Roaming", constants.AppName), configDir)
}
