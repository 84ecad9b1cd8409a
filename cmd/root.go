package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
	"github.com/frigidsec/ctfadmin/internal/constants"
	"github.com/frigidsec/ctfadmin/internal/logger"
	"github.com/frigidsec/ctfadmin/internal/ui"
)

var (
	debugLogging bool
	configPath   string
)

// rootCmd runs the interactive menu when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "ctfadmin",
	Short: "Manage CTF challenges and their flag hashes",
	Long: `ctfadmin adds, lists, deletes and searches challenge records in the
competition database. Flags are never stored: only their HMAC-SHA256 hash,
keyed with the secret in secret.txt next to the binary.

Run without arguments for the interactive menu, or use a subcommand to go
straight to one operation.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loggerOpts := logger.DefaultOptions()
		if debugLogging {
			if err := os.Truncate(constants.LogFilePath, 0); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to clear log file %s: %v\n", constants.LogFilePath, err)
			}
			loggerOpts.Level = logger.DEBUG
			loggerOpts.FilePath = constants.LogFilePath
		}
		logger.Initialize(loggerOpts)

		ui.ConfigureStyling(os.Stdout)

		if debugLogging {
			logger.Debug("Logging debug messages to: %s (max lines: %d)",
				constants.LogFilePath, constants.MaxLogLines)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, (*admin.App).Run)
	},
}

// Execute runs the command tree and exits non-zero on failure. Errors already
// shown to the operator are not printed again.
func Execute() {
	os.Exit(execute(os.Stderr))
}

func execute(stderr io.Writer) int {
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to close log file: %v\n", err)
		}
	}()

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var shown *shownError
	if !errors.As(err, &shown) {
		ui.NewConsole(os.Stdin, stderr).Error(err.Error())
	}
	return admin.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging to ctfadmin.log")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ctfadmin.yaml next to the binary)")
	addConfigFlags(rootCmd)
}
