package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/admin"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:           "list",
	Aliases:       []string{"ls"},
	Short:         "View existing challenges",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAppOptions(cmd, func(o *admin.Options) { o.JSON = listJSON }, (*admin.App).List)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print challenges as a JSON array")
	rootCmd.AddCommand(listCmd)
}
