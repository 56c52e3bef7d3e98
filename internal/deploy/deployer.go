package deploy

import (
	"go.uber.org/multierr"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Updater replaces the certificate of an existing SSL endpoint
type Updater interface {
	UpdateCert(app, certFile, keyFile string) error
}

// Outcome records one app deployment
type Outcome struct {
	App   string `json:"app"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Deployer updates every app a strategy resolves for a domain
type Deployer struct {
	heroku   Updater
	strategy Strategy
}

// NewDeployer creates a deployer
func NewDeployer(heroku Updater, strategy Strategy) *Deployer {
	return &Deployer{heroku: heroku, strategy: strategy}
}

// Deploy pushes certFile and keyFile to each app serving domain. Every app
// is attempted once; failures are logged and combined into the returned error.
func (d *Deployer) Deploy(domain, certFile, keyFile string) ([]Outcome, error) {
	apps, err := d.strategy.Apps(domain)
	if err != nil {
		logger.Error("%s: %v", d.strategy.Name(), err)
		return nil, err
	}
	if len(apps) == 0 {
		logger.Warn("%s: no apps to deploy %s to", d.strategy.Name(), domain)
		return nil, nil
	}

	outcomes := make([]Outcome, 0, len(apps))
	var errs error
	for _, app := range apps {
		logger.Info("Deploying certificate for %s to %s", domain, app)
		if err := d.heroku.UpdateCert(app, certFile, keyFile); err != nil {
			logger.Error("Failed to deploy certificate to %s: %v", app, err)
			outcomes = append(outcomes, Outcome{App: app, Error: err.Error()})
			errs = multierr.Append(errs, err)
			continue
		}
		outcomes = append(outcomes, Outcome{App: app, OK: true})
	}
	if errs != nil {
		return outcomes, apperrors.Wrap(apperrors.ErrCodeDeploy, "one or more deployments failed", errs)
	}
	return outcomes, nil
}
