package cli

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ksyq12/heroku-auto-ssl/internal/acme"
	"github.com/ksyq12/heroku-auto-ssl/internal/challenge"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
	"github.com/ksyq12/heroku-auto-ssl/internal/output"
	"github.com/ksyq12/heroku-auto-ssl/internal/preflight"
	"github.com/ksyq12/heroku-auto-ssl/internal/signing"
)

var (
	requestEmail  string
	skipPreflight bool
	domainsOK     bool
	dryRun        bool
	noDeploy      bool
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request and deploy a certificate for every configured site",
	Long: `Request one Let's Encrypt certificate covering every site in the site file.

Steps:
  1. Check that the Heroku and ACME clients are installed
  2. Check Heroku login, CLI version, app access, registered domains and
     SSL endpoint add-ons (skip with --skip-preflight-checks)
  3. Determine whether each app needs certs:add or certs:update
  4. Confirm the domain list (skip with --domains-ok)
  5. Verify every domain answers the Challenge Post protocol
  6. Issue the certificate and deploy it to each app (skip with --no-deploy)

Examples:
  heroku-auto-ssl request --email admin@example.com
  heroku-auto-ssl request --email admin@example.com --dry-run --domains-ok`,
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVarP(&requestEmail, "email", "e", "", "Email address for Let's Encrypt (required)")
	requestCmd.Flags().BoolVar(&skipPreflight, "skip-preflight-checks", false, "Skip the Heroku preflight checks")
	requestCmd.Flags().BoolVar(&domainsOK, "domains-ok", false, "Do not ask to confirm the domain list")
	requestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Request a test certificate and do not deploy it")
	requestCmd.Flags().BoolVar(&noDeploy, "no-deploy", false, "Do not deploy the issued certificate")
	_ = requestCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(requestCmd)
}

// RequestResult is the JSON output of request
type RequestResult struct {
	Preflight   *preflight.Report   `json:"preflight"`
	Challenge   []challenge.Result  `json:"challenge"`
	Certificate *acme.Certificate   `json:"certificate,omitempty"`
	Deployments []DeploymentOutcome `json:"deployments,omitempty"`
}

// DeploymentOutcome is the deployment result for one site
type DeploymentOutcome struct {
	App    string `json:"heroku_app"`
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

func validateEmail(email string) error {
	err := validation.Validate(email, validation.Required, is.EmailFormat)
	if err != nil {
		return apperrors.Validation("email: " + err.Error())
	}
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if err := validateEmail(requestEmail); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result := &RequestResult{}

	if !jsonOutput {
		output.Info("Running preflight checks...")
	}
	var sites []*config.Site
	result.Preflight, sites, err = runPreflight(ctx, cfg, skipPreflight)
	if err != nil {
		return err
	}

	if err := confirmDomains(sites); err != nil {
		return err
	}

	signer := signing.New(deps.Executor, cfg.Signing.Helper, deps.Prompter, cfg.Signing.MaxAttempts)
	defer signer.Forget()
	result.Challenge, err = checkChallenge(ctx, cfg, signer, sites)
	if err != nil {
		return err
	}

	publisher := challenge.NewPublisher(signer, cfg.Challenge.Scheme, cfg.Challenge.Timeout, sites)
	issuer, err := deps.IssuerFactory.Create(cfg, deps.Executor, publisher)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIssue, "failed to create issuer", err)
	}

	if !jsonOutput {
		output.Info("Requesting certificate with %s...", issuer.Name())
	}
	result.Certificate, err = issuer.Issue(ctx, acme.Request{
		Domains: config.Domains(sites),
		Email:   requestEmail,
		DryRun:  dryRun,
	})
	if err != nil {
		return err
	}

	var deployErr error
	switch {
	case dryRun:
		logger.Info("dry run, certificate not deployed")
	case noDeploy:
		logger.Info("--no-deploy given, certificate not deployed")
	default:
		result.Deployments, deployErr = deployCertificate(cfg, sites, result.Certificate)
	}

	msg := "Certificate issued for %s"
	if dryRun {
		msg = "Dry run succeeded for %s"
	}
	return outputResult(result, deployErr, msg, strings.Join(config.Domains(sites), ", "))
}

// confirmDomains shows the domain list and asks to continue unless
// --domains-ok was given
func confirmDomains(sites []*config.Site) error {
	if !jsonOutput {
		output.Print("")
		output.Info("Domains to be certified:")
		for _, d := range config.Domains(sites) {
			output.Indented(1).Print("%s", d)
		}
	}
	if domainsOK {
		return nil
	}
	ok, err := deps.Prompter.Confirm("Is this ok?")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeAborted, "failed to read answer", err)
	}
	if !ok {
		return aborted("domain list not confirmed")
	}
	return nil
}

// checkChallenge runs the Challenge Post check and fails when any site is
// not compliant
func checkChallenge(ctx context.Context, cfg *config.Config, signer challenge.Signer, sites []*config.Site) ([]challenge.Result, error) {
	if !jsonOutput {
		output.Info("Checking Challenge Post protocol...")
	}
	checker := challenge.NewChecker(signer, cfg.Challenge.Scheme, cfg.Challenge.Timeout)
	results, err := checker.CheckAll(ctx, sites)
	if err != nil {
		return results, err
	}

	var failed []string
	for _, r := range results {
		if r.Compliant {
			if !jsonOutput {
				output.Indented(1).Success("%s (%s)", r.Domain, r.App)
			}
			continue
		}
		failed = append(failed, r.Domain)
		if !jsonOutput {
			output.Indented(1).Error("%s (%s): %s", r.Domain, r.App, r.Error)
		}
	}
	if len(failed) > 0 {
		return results, apperrors.Wrap(apperrors.ErrCodeChallenge, strings.Join(failed, ", "), apperrors.ErrNonCompliant)
	}
	return results, nil
}

// deployCertificate installs cert on every site's app with the endpoint
// action found during preflight. Every app is attempted once.
func deployCertificate(cfg *config.Config, sites []*config.Site, cert *acme.Certificate) ([]DeploymentOutcome, error) {
	h := newHeroku(cfg)
	outcomes := make([]DeploymentOutcome, 0, len(sites))
	var errs error

	for _, s := range sites {
		if !jsonOutput {
			output.Info("Deploying certificate to %s (%s)...", s.HerokuApp, s.EndpointAction)
		}
		o := DeploymentOutcome{App: s.HerokuApp, Action: s.EndpointAction}
		if err := h.DeployCert(s.HerokuApp, s.EndpointAction, cert.FullChainPath, cert.KeyPath); err != nil {
			logger.Error("deploy to %s failed: %v", s.HerokuApp, err)
			o.Error = err.Error()
			errs = multierr.Append(errs, err)
			if !jsonOutput {
				output.Indented(1).Error("%v", err)
			}
		} else {
			o.OK = true
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, errs
}
