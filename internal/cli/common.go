package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/acme"
	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/heroku"
	"github.com/ksyq12/heroku-auto-ssl/internal/output"
	"github.com/ksyq12/heroku-auto-ssl/internal/preflight"
)

// loadConfig loads the tool config, applies environment overrides and the
// --sites flag, and validates the result
func loadConfig() (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "failed to load config", err)
	}
	if err := cfg.ApplyEnv(deps.Getenv); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid environment", err)
	}
	if sitesPath != "" {
		cfg.SitesFile = sitesPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid config", err)
	}
	return cfg, nil
}

// sitesFile returns the expanded path of the configured site file
func sitesFile(cfg *config.Config) (string, error) {
	path, err := config.ExpandPath(cfg.SitesFile)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeConfig, "invalid sites_file", err)
	}
	return path, nil
}

// loadConfigAndSites loads the config and the site file it names, for
// commands that do not run the preflight chain
func loadConfigAndSites() (*config.Config, []*config.Site, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	path, err := sitesFile(cfg)
	if err != nil {
		return nil, nil, err
	}
	sites, err := config.LoadSites(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, sites, nil
}

func newHeroku(cfg *config.Config) *heroku.CLI {
	return heroku.New(deps.Executor, cfg.Heroku.Bin)
}

// requiredTools lists the CLIs that must be on PATH
func requiredTools(cfg *config.Config) []preflight.Tool {
	tools := []preflight.Tool{newHeroku(cfg)}
	if cfg.ACME.Client == config.ClientCLI {
		tools = append(tools, acme.NewCLIIssuer(deps.Executor, cfg.ACME.Bin, cfg.ACME.LiveDir, cfg.ACME.ExtraArgs))
	}
	return tools
}

// runPreflight checks the required tools, loads the site file and runs the
// remaining preflight checks, printing each check unless JSON output is
// requested. The loaded sites are returned even when a later check fails.
func runPreflight(ctx context.Context, cfg *config.Config, skipChecks bool) (*preflight.Report, []*config.Site, error) {
	path, err := sitesFile(cfg)
	if err != nil {
		return nil, nil, err
	}
	p := preflight.Default()
	if !jsonOutput {
		p.OnCheck = displayCheck
	}
	sctx := &preflight.StepContext{
		Heroku:     newHeroku(cfg),
		Tools:      requiredTools(cfg),
		SitesFile:  path,
		MinVersion: cfg.Heroku.MinVersion,
	}
	report, err := p.Run(ctx, sctx, skipChecks)
	return report, sctx.Sites, err
}

func displayCheck(check preflight.Check) {
	switch check.Status {
	case preflight.StatusSuccess:
		output.Success("%s", check.Name)
	case preflight.StatusWarning:
		output.Warn("%s: %s", check.Name, check.Message)
	case preflight.StatusError:
		output.Error("%s: %s", check.Name, check.Message)
	case preflight.StatusSkipped:
		output.Info("%s skipped", check.Name)
	}
	for _, d := range check.Details {
		output.Indented(1).Print("%s", d)
	}
}

// commandContext returns the command's context, or a background context
// when the command was invoked directly
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// outputResult writes data as JSON when requested and returns runErr;
// otherwise it returns runErr or prints the success message
func outputResult(data interface{}, runErr error, successMsg string, args ...interface{}) error {
	if jsonOutput {
		if err := output.JSON(data); err != nil {
			return err
		}
		return runErr
	}
	if runErr != nil {
		return runErr
	}
	output.Success(successMsg, args...)
	return nil
}

// aborted is returned when the user declines to continue
func aborted(reason string) error {
	return &apperrors.Error{Code: apperrors.ErrCodeAborted, Message: fmt.Sprintf("aborted: %s", reason)}
}
