package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
)

var deleteCmd = &cobra.Command{
	Use:           "delete",
	Aliases:       []string{"rm"},
	Short:         "Delete a challenge by name",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, (*admin.App).Delete)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
