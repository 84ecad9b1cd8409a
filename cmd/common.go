package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
	"github.com/frigidsec/ctfadmin/internal/config"
	"github.com/frigidsec/ctfadmin/internal/constants"
	"github.com/frigidsec/ctfadmin/internal/ctfflag"
	"github.com/frigidsec/ctfadmin/internal/keystore"
	"github.com/frigidsec/ctfadmin/internal/logger"
	"github.com/frigidsec/ctfadmin/internal/store"
	"github.com/frigidsec/ctfadmin/internal/ui"
)

// shownError marks an error the operator has already seen on the console.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

func shown(err error) error {
	if err == nil {
		return nil
	}
	return &shownError{err: err}
}

// Flag names shared by every command that touches the store.
const (
	flagBackend    = "backend"
	flagMongoURI   = "mongo-uri"
	flagDatabase   = "database"
	flagCollection = "collection"
	flagSQLitePath = "sqlite-path"
	flagSecretFile = "secret-file"
	flagFlagPrefix = "flag-prefix"
	flagTimeout    = "timeout"
)

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String(flagBackend, constants.DefaultBackend, "store backend: mongo or sqlite")
	f.String(flagMongoURI, "", "MongoDB connection URI (default from 'ctfadmin configure')")
	f.String(flagDatabase, constants.DefaultDatabase, "MongoDB database name")
	f.String(flagCollection, constants.DefaultCollection, "MongoDB collection name")
	f.String(flagSQLitePath, "", "SQLite database file (default ctfadmin.db next to the binary)")
	f.String(flagSecretFile, "", "file holding the HMAC secret (default secret.txt next to the binary)")
	f.String(flagFlagPrefix, constants.FlagPrefix, "namespace tag every flag must start with")
	f.Duration(flagTimeout, 0, "bound on each database call, e.g. 10s (0 waits indefinitely)")
}

// loadConfig layers explicitly set flags over file and environment settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	baseDir := config.ExecutableDir()
	path, required := configPath, true
	if path == "" {
		path, required = filepath.Join(baseDir, constants.ConfigFileName), false
	}

	cfg, err := config.Load(baseDir, path, required, os.Getenv)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]*string{
		flagBackend:    &cfg.Backend,
		flagMongoURI:   &cfg.MongoURI,
		flagDatabase:   &cfg.Database,
		flagCollection: &cfg.Collection,
		flagSQLitePath: &cfg.SQLitePath,
		flagSecretFile: &cfg.SecretFile,
		flagFlagPrefix: &cfg.FlagPrefix,
	}
	for name, dst := range overrides {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if flags.Changed(flagTimeout) {
		d, err := flags.GetDuration(flagTimeout)
		if err != nil {
			return nil, err
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Config: backend=%s database=%s collection=%s secret=%s prefix=%s timeout=%s",
		cfg.Backend, cfg.Database, cfg.Collection, cfg.SecretFile, cfg.FlagPrefix, cfg.Timeout)
	return cfg, nil
}

// withApp resolves config, loads the secret, opens the store for the duration
// of op and closes it on every return path.
func withApp(cmd *cobra.Command, op func(a *admin.App, ctx context.Context) error) error {
	return withAppOptions(cmd, nil, op)
}

func withAppOptions(cmd *cobra.Command, mutate func(*admin.Options), op func(a *admin.App, ctx context.Context) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	console := ui.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())

	cfg, err := loadConfig(cmd)
	if err != nil {
		console.Error(fmt.Sprintf("Invalid configuration: %v", err))
		return shown(err)
	}

	secret, err := ctfflag.LoadSecret(cfg.SecretFile)
	if err != nil {
		console.Error(err.Error())
		return shown(err)
	}
	hasher, err := ctfflag.NewHasher(secret)
	if err != nil {
		console.Error(err.Error())
		return shown(err)
	}
	validator, err := ctfflag.NewValidator(cfg.FlagPrefix)
	if err != nil {
		console.Error(err.Error())
		return shown(err)
	}

	if cfg.Backend == constants.BackendMongo && cfg.MongoURI == "" {
		uri, from, err := keystore.Get()
		if err != nil {
			console.Error(err.Error())
			return shown(err)
		}
		logger.Debug("Using MongoDB URI from %s", from)
		cfg.MongoURI = uri
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		console.Error("Could not connect to the challenge store.")
		console.Println(err.Error())
		return shown(err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warning("Failed to close store: %v", err)
		}
	}()

	opts := admin.Options{
		Store:     st,
		Validator: validator,
		Hasher:    hasher,
		Console:   console,
		Timeout:   cfg.Timeout,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return shown(op(admin.New(opts), ctx))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened %s store in %s", cfg.Backend, time.Since(start).Round(time.Millisecond))
	return st, nil
}
