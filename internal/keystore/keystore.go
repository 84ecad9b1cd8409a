// Package keystore keeps the MongoDB connection URI out of config files and
// shell history.
//
// Lookup order:
//  1. Environment variable (CTFADMIN_MONGO_URI), read only
//  2. System keyring (go-keyring)
//  3. Credentials file (~/.config/ctfadmin/credentials) for headless hosts
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/frigidsec/ctfadmin/internal/constants"
	"github.com/frigidsec/ctfadmin/internal/logger"
)

const (
	EnvMongoURI = "CTFADMIN_MONGO_URI"

	keyringUser         = "mongo_uri"
	credentialsFileName = "credentials"
)

var (
	// ErrNotFound is returned when no URI is stored anywhere
	ErrNotFound = errors.New("mongo URI not found")

	mu sync.Mutex
)

type credentials struct {
	MongoURI string `json:"mongo_uri,omitempty"`
}

// StorageType indicates which storage backend holds the URI
type StorageType string

const (
	StorageEnv     StorageType = "environment"
	StorageKeyring StorageType = "keyring"
	StorageFile    StorageType = "file"
)

// Get returns the stored URI and where it came from.
func Get() (string, StorageType, error) {
	if uri := os.Getenv(EnvMongoURI); uri != "" {
		logger.Debug("Mongo URI found in environment variable")
		return uri, StorageEnv, nil
	}

	uri, err := keyring.Get(constants.KeyringServiceName, keyringUser)
	if err == nil && uri != "" {
		logger.Debug("Mongo URI found in system keyring")
		return uri, StorageKeyring, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Keyring access failed: %v", err)
	}

	uri, err = getFromFile()
	if err == nil && uri != "" {
		logger.Debug("Mongo URI found in credentials file")
		return uri, StorageFile, nil
	}

	return "", "", fmt.Errorf("%w: please run 'ctfadmin configure'", ErrNotFound)
}

// Set stores the URI in the keyring, or in the credentials file when no
// keyring is reachable.
func Set(uri string) (StorageType, error) {
	if uri == "" {
		return "", errors.New("mongo URI cannot be empty")
	}

	err := keyring.Set(constants.KeyringServiceName, keyringUser, uri)
	if err == nil {
		logger.Debug("Mongo URI stored in system keyring")
		return StorageKeyring, nil
	}
	logger.Debug("Keyring storage failed: %v, falling back to file", err)

	if err := setToFile(uri); err != nil {
		return "", fmt.Errorf("failed to store mongo URI: %w", err)
	}
	logger.Debug("Mongo URI stored in credentials file")
	return StorageFile, nil
}

// Delete removes the URI from the keyring and the credentials file.
func Delete() error {
	var lastErr error

	if err := keyring.Delete(constants.KeyringServiceName, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Failed to delete from keyring: %v", err)
		lastErr = err
	}
	if err := deleteFromFile(); err != nil {
		logger.Debug("Failed to delete from file: %v", err)
		lastErr = err
	}
	return lastErr
}

// getConfigDir returns the per-user directory holding the credentials file.
func getConfigDir() (string, error) {
	base, err := userConfigBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, constants.AppName), nil
}

func getCredentialsPath() (string, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFileName), nil
}

func getFromFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	credPath, err := getCredentialsPath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(credPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if creds.MongoURI == "" {
		return "", ErrNotFound
	}
	return creds.MongoURI, nil
}

func setToFile(uri string) error {
	mu.Lock()
	defer mu.Unlock()

	configDir, err := getConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(credentials{MongoURI: uri}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	credPath := filepath.Join(configDir, credentialsFileName)
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return restrictFilePermissions(credPath)
}

func deleteFromFile() error {
	mu.Lock()
	defer mu.Unlock()

	credPath, err := getCredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(credPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}
