package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksyq12/heroku-auto-ssl/internal/config"
	"github.com/ksyq12/heroku-auto-ssl/internal/deploy"
	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/hook"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

var hookCmd = &cobra.Command{
	Use:   "hook <event> [args...]",
	Short: "ACME client hook that deploys renewed certificates",
	Long: `Handle a lifecycle event of a dehydrated-style ACME client.

deploy_cert pushes the new certificate to Heroku with heroku certs:update.
The apps are chosen by hook.strategy:
  broadcast  every app in HEROKU_APP_IDS (JSON array)
  targeted   the app mapped to the domain in HEROKU_AUTO_SSL_DOMAIN_MAPPING

Other events are logged and ignored.

Examples:
  heroku-auto-ssl hook deploy_cert example.com key.pem cert.pem fullchain.pem chain.pem 1700000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHook,
}

func init() {
	hookCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(hookCmd)
}

// openHookLog tees log records to the configured hook log file and shows
// debug records on the console
func openHookLog(cfg *config.Config) {
	logger.SetLevel(logger.LevelDebug)
	if cfg.Hook.LogFile == "" {
		return
	}
	path, err := config.ExpandPath(cfg.Hook.LogFile)
	if err == nil {
		err = logger.AddFile(path)
	}
	if err != nil {
		logger.Warn("could not open hook log %s: %v", cfg.Hook.LogFile, err)
	}
}

func runHook(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	openHookLog(cfg)

	strategy, ok := deploy.Get(cfg.Hook.Strategy, deps.Getenv)
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeConfig, "unknown hook strategy %q (available: %v)", cfg.Hook.Strategy, deploy.Available())
	}

	d := hook.NewDispatcher(hook.NewIdentityResolver(deps.Executor))
	d.Handle(hook.EventDeployCert, hook.DeployCert(deploy.NewDeployer(newHeroku(cfg), strategy)), true)

	if err := d.Dispatch(commandContext(cmd), args[0], args[1:]); err != nil {
		logger.Error("%v", err)
		return err
	}
	return nil
}

var hookChainCmd = &cobra.Command{
	Use:   "hook-chain [args...]",
	Short: "Run every configured hook with the same arguments",
	Long: `Run each command in hook.chain in order with the given arguments appended.
A failing hook does not stop the chain; the command fails if any hook failed.

Examples:
  heroku-auto-ssl hook-chain deploy_cert example.com key.pem cert.pem fullchain.pem chain.pem 1700000000`,
	RunE: runHookChain,
}

func init() {
	hookChainCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(hookChainCmd)
}

func runHookChain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	openHookLog(cfg)

	chain, err := hook.NewChain(deps.Executor, cfg.Hook.Chain)
	if err != nil {
		return err
	}
	if chain.Len() == 0 {
		logger.Warn("hook.chain is empty, nothing to run")
		return nil
	}
	if err := chain.Run(args); err != nil {
		return fmt.Errorf("hook chain: %w", err)
	}
	return nil
}
