package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/output"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check that Heroku is ready for a certificate request",
	Long: `Run the preflight checks without requesting a certificate.

Checks:
  - Heroku CLI and ACME client installation
  - Site file
  - Heroku login and CLI version
  - Access to every configured app
  - Domains registered with their apps
  - SSL endpoint add-ons
  - Endpoint action (certs:add or certs:update) per app

Examples:
  heroku-auto-ssl preflight
  heroku-auto-ssl preflight --json`,
	RunE: runPreflightCmd,
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

func runPreflightCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, _, runErr := runPreflight(commandContext(cmd), cfg, false)
	if report == nil {
		return runErr
	}

	if jsonOutput {
		if err := output.JSON(report); err != nil {
			return err
		}
		return runErr
	}
	if runErr != nil {
		return runErr
	}

	output.Print("")
	rows := make([][]string, 0, len(report.Sites))
	for _, s := range report.Sites {
		rows = append(rows, []string{s.App, s.Domain, s.EndpointAction})
	}
	output.Table([]string{"APP", "DOMAIN", "ACTION"}, rows)
	return nil
}
