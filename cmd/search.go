package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
)

var searchCmd = &cobra.Command{
	Use:           "search",
	Short:         "Show the stored hash and id of a challenge",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, (*admin.App).Search)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
