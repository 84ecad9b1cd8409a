package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/frigidsec/ctfadmin/internal/constants"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", constants.AppName, constants.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Go %s - %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
