package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/signing"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Challenge Post protocol tools",
}

var challengeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every site answers the Challenge Post protocol",
	Long: `Sign the check message with each site's key and post it to the site's
check endpoint. A site is compliant when it answers exactly "OK".

Examples:
  heroku-auto-ssl challenge check
  heroku-auto-ssl challenge check --json`,
	RunE: runChallengeCheck,
}

func init() {
	challengeCmd.AddCommand(challengeCheckCmd)
	rootCmd.AddCommand(challengeCmd)
}

func runChallengeCheck(cmd *cobra.Command, args []string) error {
	cfg, sites, err := loadConfigAndSites()
	if err != nil {
		return err
	}

	signer := signing.New(deps.Executor, cfg.Signing.Helper, deps.Prompter, cfg.Signing.MaxAttempts)
	defer signer.Forget()
	results, checkErr := checkChallenge(commandContext(cmd), cfg, signer, sites)
	return outputResult(results, checkErr, "All %d site(s) are compliant", len(results))
}
