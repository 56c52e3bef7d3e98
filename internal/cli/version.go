package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		return output.JSON(map[string]string{"version": version})
	}
	output.Print("heroku-auto-ssl %s", version)
	return nil
}
