package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/output"
	"github.com/ksyq12/heroku-auto-ssl/internal/scan"
)

var (
	scanDomainsFile string
	scanWrite       string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Report certificate expiry and list domains due for renewal",
	Long: `Connect to every domain in the domain list over TLS and report when its
certificate expires. The first entry of the list is the root domain and is
not scanned.

With --write, the domains due for renewal are written to the given file as
"<root> <domain>..."; when nothing is due an existing file is removed.

Examples:
  heroku-auto-ssl scan
  heroku-auto-ssl scan --domains domains.master.txt --write domains.txt`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDomainsFile, "domains", "", "Domain list (default scan.domains_file)")
	scanCmd.Flags().StringVar(&scanWrite, "write", "", "Write the renewal list to this file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := scanDomainsFile
	if path == "" {
		path = cfg.Scan.DomainsFile
	}
	if path, err = config.ExpandPath(path); err != nil {
		return err
	}
	root, domains, err := scan.LoadDomains(path)
	if err != nil {
		return err
	}

	bundle, err := config.ExpandPath(cfg.Scan.CABundle)
	if err != nil {
		return err
	}
	roots, err := scan.LoadCABundle(bundle)
	if err != nil {
		return err
	}

	scanner := scan.NewScanner(scan.Options{
		Roots:           roots,
		Port:            cfg.Scan.Port,
		Timeout:         cfg.Scan.Timeout,
		Concurrency:     cfg.Scan.Concurrency,
		RenewWithinDays: cfg.Scan.RenewWithinDays,
	})
	statuses, err := scanner.Scan(commandContext(cmd), domains)
	if err != nil {
		return err
	}
	report := scan.Summarize(statuses)

	if scanWrite != "" {
		if _, err := scan.WriteRenewalList(scanWrite, root, report); err != nil {
			return err
		}
	}

	if jsonOutput {
		return output.JSON(report)
	}
	text, err := report.Render()
	if err != nil {
		return err
	}
	output.Print("%s", text)
	return nil
}
