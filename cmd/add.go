package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new challenge",
	Long: `Prompts for a challenge name and its flag, shows the flag hash that will
be stored and asks for confirmation. The challenge is rejected if another
challenge already uses the same name or flag.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, (*admin.App).Add)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
