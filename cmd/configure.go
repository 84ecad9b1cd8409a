package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/frigidsec/ctfadmin/internal/keystore"
	"github.com/frigidsec/ctfadmin/internal/ui"
)

var configureForget bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store the MongoDB connection URI",
	Long: `Stores the MongoDB connection URI in the system keychain, or in
~/.config/ctfadmin/credentials when no keychain is available.

The URI is read without echo when stdin is a terminal. CTFADMIN_MONGO_URI,
when set, takes precedence over the stored value.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		console := ui.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())

		if configureForget {
			if err := keystore.Delete(); err != nil {
				console.Error(fmt.Sprintf("Error removing stored URI: %v", err))
				return shown(err)
			}
			console.Success("Stored MongoDB URI removed.")
			return nil
		}

		uri, err := readURI(cmd, console)
		if err != nil {
			console.Error(fmt.Sprintf("Error reading URI: %v", err))
			return shown(err)
		}
		if uri == "" {
			err := fmt.Errorf("URI cannot be empty")
			console.Error(err.Error())
			return shown(err)
		}

		from, err := keystore.Set(uri)
		if err != nil {
			console.Error(fmt.Sprintf("Error storing URI: %v", err))
			return shown(err)
		}
		console.Success(fmt.Sprintf("MongoDB URI stored (%s).", from))
		if os.Getenv(keystore.EnvMongoURI) != "" {
			console.Warning(keystore.EnvMongoURI + " is set and will be used instead.")
		}
		return nil
	},
}

// readURI reads without echo from a terminal, or a plain line otherwise.
func readURI(cmd *cobra.Command, console *ui.Console) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		console.Printf("MongoDB URI: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		console.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return console.Prompt("MongoDB URI: ")
}

func init() {
	configureCmd.Flags().BoolVar(&configureForget, "forget", false, "remove the stored URI instead")
	rootCmd.AddCommand(configureCmd)
}
