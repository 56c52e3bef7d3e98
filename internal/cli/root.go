package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

var (
	jsonOutput bool
	verbose    bool
	configPath string
	sitesPath  string
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "heroku-auto-ssl",
	Short: "Let's Encrypt certificates for Heroku apps",
	Long: `heroku-auto-ssl obtains Let's Encrypt certificates for domains served by
Heroku apps and installs them on the apps' SSL endpoints.

It checks the Heroku side first (login, app access, registered domains and
SSL endpoint add-ons), verifies that every domain answers the Challenge Post
protocol, requests the certificate and deploys it. The hook commands let an
ACME client deploy renewed certificates, and scan reports which domains are
due for renewal.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	err := rootCmd.Execute()
	_ = logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/heroku-auto-ssl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sitesPath, "sites", "", "Site file, overrides sites_file from the config")
}
