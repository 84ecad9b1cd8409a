// Package config resolves runtime settings. Precedence, lowest first:
// built-in defaults, the YAML config file, CTFADMIN_* environment variables,
// then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frigidsec/ctfadmin/internal/constants"
	"github.com/frigidsec/ctfadmin/internal/store"
)

const envPrefix = "CTFADMIN_"

// Config holds everything needed to open the store and hash flags.
type Config struct {
	Backend    string        `yaml:"backend"`
	MongoURI   string        `yaml:"mongo_uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	SQLitePath string        `yaml:"sqlite_path"`
	SecretFile string        `yaml:"secret_file"`
	FlagPrefix string        `yaml:"flag_prefix"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Defaults returns the built-in settings. Files are looked up in baseDir,
// normally the directory holding the executable.
func Defaults(baseDir string) *Config {
	return &Config{
		Backend:    constants.DefaultBackend,
		Database:   constants.DefaultDatabase,
		Collection: constants.DefaultCollection,
		SQLitePath: filepath.Join(baseDir, constants.DefaultSQLitePath),
		SecretFile: filepath.Join(baseDir, constants.SecretFileName),
		FlagPrefix: constants.FlagPrefix,
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is only an error when required is set.
func Load(baseDir, path string, required bool, getenv func(string) string) (*Config, error) {
	cfg := Defaults(baseDir)

	if path != "" {
		err := cfg.mergeFile(path)
		if err != nil && (required || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Relative paths in the file are relative to the file itself.
	dir := filepath.Dir(path)
	fromFile.SQLitePath = resolvePath(dir, fromFile.SQLitePath)
	fromFile.SecretFile = resolvePath(dir, fromFile.SecretFile)

	c.overlay(&fromFile)
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	fromEnv := Config{
		Backend:    getenv(envPrefix + "BACKEND"),
		Database:   getenv(envPrefix + "DATABASE"),
		Collection: getenv(envPrefix + "COLLECTION"),
		SQLitePath: getenv(envPrefix + "SQLITE_PATH"),
		SecretFile: getenv(envPrefix + "SECRET_FILE"),
		FlagPrefix: getenv(envPrefix + "FLAG_PREFIX"),
	}
	if raw := getenv(envPrefix + "TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT %q: %w", envPrefix, raw, err)
		}
		fromEnv.Timeout = d
	}
	c.overlay(&fromEnv)
	return nil
}

// overlay copies every non-zero field of o onto c.
func (c *Config) overlay(o *Config) {
	setIf(&c.Backend, o.Backend)
	setIf(&c.MongoURI, o.MongoURI)
	setIf(&c.Database, o.Database)
	setIf(&c.Collection, o.Collection)
	setIf(&c.SQLitePath, o.SQLitePath)
	setIf(&c.SecretFile, o.SecretFile)
	setIf(&c.FlagPrefix, o.FlagPrefix)
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case constants.BackendMongo:
		if c.Database == "" || c.Collection == "" {
			return errors.New("database and collection must be set for the mongo backend")
		}
	case constants.BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path must be set for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (expected %q or %q)", c.Backend, constants.BackendMongo, constants.BackendSQLite)
	}
	if c.FlagPrefix == "" {
		return errors.New("flag_prefix cannot be empty")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

// StoreOptions maps the config onto store.Open's options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:    c.Backend,
		MongoURI:   c.MongoURI,
		Database:   c.Database,
		Collection: c.Collection,
		SQLitePath: c.SQLitePath,
	}
}

// ExecutableDir returns the directory containing the running binary, falling
// back to the working directory.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
